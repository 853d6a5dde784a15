/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package csl-rest exposes the status list service over REST.
package main

import (
	"github.com/spf13/cobra"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/credstatus/csl-service/cmd/csl-rest/startcmd"
)

var logger = log.New("csl-rest")

// Version is embedded during build.
var Version string

func main() {
	rootCmd := &cobra.Command{
		Use: "csl-rest",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rootCmd.AddCommand(startcmd.GetStartCmd(
		startcmd.WithVersion(Version),
	))

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Failed to run csl-rest", log.WithError(err))
	}
}
