package example

import "fmt"

// EstimatePi demonstrates `parallel for` with a reduction: the midpoint
// rule over n slices, each worker accumulating into its own private sum
// that is folded into the shared one when its chunks run out. Without
// the transform the marker is an ordinary comment and the loop runs
// serially, producing the same value.
func EstimatePi(n int) float64 {
	h := 1.0 / float64(n)
	sum := 0.0
	//ompgo: parallel for reduction(+: sum)
	for i := 0; i < n; i++ {
		x := h * (float64(i) + 0.5)
		sum += 4.0 / (1.0 + x*x)
	}
	return h * sum
}

// SumSquares demonstrates `parallel for schedule(dynamic)` for an
// unevenly-priced loop body.
func SumSquares(values []int) int {
	total := 0
	//ompgo: parallel for schedule(dynamic, 4) reduction(+: total)
	for i := 0; i < len(values); i++ {
		total += values[i] * values[i]
	}
	return total
}

// CountMatches demonstrates `critical`: the shared counter update is
// serialized, everything else runs concurrently.
func CountMatches(lines []string, match func(string) bool) int {
	count := 0
	//ompgo: parallel
	{
		//ompgo: for
		for i := 0; i < len(lines); i++ {
			if match(lines[i]) {
				//ompgo: critical
				{
					count++
				}
			}
		}
	}
	return count
}

// Report demonstrates `single`: one worker prints the banner while the
// rest wait at the construct's implicit barrier before filling rows.
func Report(rows []string) {
	//ompgo: parallel num_threads(2)
	{
		//ompgo: single
		{
			fmt.Println("report:")
		}
		//ompgo: for
		for i := 0; i < len(rows); i++ {
			fmt.Println(rows[i])
		}
	}
}
