package example

// Pipeline demonstrates `sections`: each top-level statement of the
// governed block is one section, claimed by at most one worker.
func Pipeline(load, transform, store func()) {
	//ompgo: parallel num_threads(3)
	{
		//ompgo: sections
		{
			load()
			transform()
			store()
		}
	}
}

// Walk demonstrates `task` and `taskwait`: every node spawns a deferred
// visit, and the taskwait guarantees every visit submitted so far has
// completed before Walk returns.
func Walk(nodes []int, visit func(int)) {
	//ompgo: parallel num_threads(2)
	{
		//ompgo: single
		{
			for i := 0; i < len(nodes); i++ {
				n := nodes[i]
				//ompgo: task firstprivate(n)
				{
					visit(n)
				}
			}
			//ompgo: taskwait
			_ = nodes
		}
	}
}

// Tally demonstrates `atomic`: the shared counter update is a single
// augmented assignment whose right-hand side names only locals,
// serialized process-wide.
func Tally(samples []int) int {
	total := 0
	//ompgo: parallel for
	for i := 0; i < len(samples); i++ {
		v := samples[i]
		//ompgo: atomic
		total += v
	}
	return total
}

// RunningTotals demonstrates `declare reduction` plus `scan`: bitor is a
// user-declared reduction usable by any later loop in the file, and the
// scan marker folds each iteration's contribution into the shared prefix
// under the construct's lock.
//
//ompgo: declare reduction identifier(bitor) combiner(omp_out = omp_out | omp_in) initializer(omp_priv = 0)
func RunningTotals(in, out []int) {
	total := 0
	//ompgo: parallel for schedule(static, 1) ordered
	for i := 0; i < len(in); i++ {
		//ompgo: scan inclusive(total)
		{
			total += in[i]
			out[i] = total
		}
	}
}
