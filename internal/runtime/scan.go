package ompgort

// ScanCell serializes the fold phase of a `scan` construct (OpenMP 5.0
// inclusive/exclusive prefix scan inside a worksharing loop). One cell
// is claimed per team via Worker.ClaimShared, so every worker folds its
// contribution into the scan variables — which live in the enclosing
// scope every worker's lifted body shares — under a single lock, in the
// order the workers' chunks happen to be scheduled. A full OpenMP scan
// runs a reduction pass before the scan pass proper; this minimal model
// does not attempt that.
type ScanCell struct {
	mu *Mutex
}

// NewScanCell returns a fresh, unclaimed cell.
func NewScanCell() *ScanCell { return &ScanCell{mu: NewMutex()} }

// Fold runs one worker's fold statements with the cell's lock held,
// released on every exit path including a panic unwinding through fn.
func (c *ScanCell) Fold(wid int64, fn func()) {
	c.mu.WithLock(wid, fn)
}
