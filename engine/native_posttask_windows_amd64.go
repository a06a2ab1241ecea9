package engine

// onPostTask receives the FlutterTask by reference: the x64 convention
// passes aggregates wider than 8 bytes through a caller-owned copy.
func onPostTask(task *taskC, targetNanos uint64, userData uintptr) uintptr {
	if task == nil {
		return 0
	}
	return postTask(*task, targetNanos, userData)
}
