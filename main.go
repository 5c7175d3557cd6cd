// The main package for the showcrawler executable.
package main

import "github.com/cascadialive/showcrawler/cmd"

func main() {
	cmd.Execute()
}
