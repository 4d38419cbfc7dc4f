package handlers

import "expvar"

// contentOps counts content mutations by outcome, published under /debug/vars.
var contentOps = expvar.NewMap("content_ops")

func countOp(name string, err error) {
	if err != nil {
		contentOps.Add(name+"_failed", 1)
		return
	}
	contentOps.Add(name, 1)
}
