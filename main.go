package main

import "github.com/sagebind/robo-ftp/cmd"

func main() {
	cmd.Execute()
}
