// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command depositd runs the submission workflow engine as a service.
//
// It hosts the submission store, the effect orchestrator, the autosave
// timer, and a small HTTP listener exposing health, metrics, and a
// read-only state snapshot for debugging.
//
// # Usage
//
//	# Run with defaults (local repository on :8080)
//	depositd serve
//
//	# Run against a specific repository with a config file
//	depositd serve --config /etc/depositd/depositd.yaml
//
//	# Workflow-scope session (reviewer editing a workflowitem)
//	depositd serve --scope workflowitem
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	scopeFlag  string

	rootCmd = &cobra.Command{
		Use:   "depositd",
		Short: "Submission workflow engine for repository deposits",
		Long: `depositd drives the multi-step submission wizard of a digital
repository: section state, dirty-change tracking, autosave, and the
save / deposit / discard workflows against the repository REST API.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the engine and its debug HTTP listener",
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
)

// version is stamped at build time via -ldflags.
var version = "dev"

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	serveCmd.Flags().StringVar(&scopeFlag, "scope", "workspaceitem", "Resource scope: workspaceitem or workflowitem")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
