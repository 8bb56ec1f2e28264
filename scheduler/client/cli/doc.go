/*
Package cli is the heft command-line client. The root command carries the
cluster config, logging and admin server settings; the plan, run and compare
subcommands each load a dataset, build a ranked batch and hand it to the
scheduler engine.
*/
package cli
