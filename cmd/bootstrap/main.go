package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Conjecture-prove curriculum learning loop",
	Long: `Drives the iterative conjecture-prove bootstrapping loop: poses
held-out goals to a learned agent, dispatches proof-search jobs to the
worker layer, classifies the outcomes into a curated training set, and
updates the agent each round until the goals are solved or the
iteration budget runs out.`,
	Version: "0.1.0",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
