package worker

// consensusOperations periodically resolves the chain against the peers.
func (w *Worker) consensusOperations() {
	w.evHandler("worker: consensusOperations: G started")
	defer w.evHandler("worker: consensusOperations: G completed")

	// Update this node before waiting on the ticker.
	w.runConsensusOperation()

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runConsensusOperation()
			}
		case <-w.shut:
			w.evHandler("worker: consensusOperations: received shut signal")
			return
		}
	}
}

// runConsensusOperation asks the known peers for their chains.
func (w *Worker) runConsensusOperation() {
	w.evHandler("worker: runConsensusOperation: started")
	defer w.evHandler("worker: runConsensusOperation: completed")

	if replaced := w.state.Resolve(w.ctx); replaced {
		w.evHandler("worker: runConsensusOperation: chain replaced: length[%d]", len(w.state.RetrieveChain()))
	}
}
