/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import "log"

/**
Verbose logs if not nil
*/
var verbose *log.Logger

/**
Use this function to trace bean creation, deferral and destruction steps.
Pass nil to make factories silent again.
*/
func Verbose(log *log.Logger) (prev *log.Logger) {
	prev, verbose = verbose, log
	return
}

func tracef(format string, args ...interface{}) {
	if verbose != nil {
		verbose.Printf(format, args...)
	}
}
