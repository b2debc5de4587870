// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"log"
	"os"

	"github.com/tejzpr/hippocampus/internal/cli"
)

func main() {
	// stdout carries command output and, under serve, JSON-RPC
	log.SetOutput(os.Stderr)
	os.Exit(cli.Execute())
}
