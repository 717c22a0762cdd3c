package main

import (
	"github.com/psanodiya94/gocommon/pkg/cmdutil"
)

func main() {
	defer cmdutil.HandleExit()
	cmdutil.Must(NewRootCommand().Execute())
}
