// Command jpro creates Jira issues and manages OAuth access to Jira for wiki pages.
package main

import "github.com/karolswdev/jirapro/cmd"

func main() {
	cmd.Execute()
}
