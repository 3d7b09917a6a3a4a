package main

import "github.com/quatqasymbek/ai-course-dash/cmd"

func main() {
	cmd.Execute()
}
