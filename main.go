package main

import "measurement-extractor/cmd"

func main() {
	cmd.Execute()
}
