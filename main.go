package main

import (
	"os"

	"github.com/kabilangimba/team-task-management-system/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
