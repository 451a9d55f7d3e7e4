package main

import "github.com/fakeyudi/storyapp/cmd"

func main() {
	cmd.Execute()
}
