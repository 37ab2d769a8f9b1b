package main

import "github.com/inovacc/jenkinsfix/cmd"

func main() {
	cmd.Execute()
}
