// Package launch starts python experiments with per-run output directories.
//
// A run is identified by the experiment's script name and its custom flags.
// The flags, minus a small filtered set, are sorted and appended to the name
// so that re-running with the same flags reuses the same log, checkpoint,
// evaluation and tensorboard directories:
//
//	experiment/foo.py --lr=0.1 --batch=32  ->  log/foo--batch=32--lr=0.1
//
// The experiment itself receives every custom flag, filtered or not, plus one
// --<category>_dir flag per directory.
package launch
