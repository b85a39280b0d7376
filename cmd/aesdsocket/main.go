// This is the launcher for the aesdsocket server and its tools.
package main

import (
	"os"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/cmd"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		log.Error("%v", err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}
