package statistics

// historyLen covers eight hours of samples at the default 8s stats tick.
const historyLen = 3600

// HashRate keeps the most recent local hashrate samples.
type HashRate struct {
	dataSeries [historyLen]float64
	currentPos int
	filled     int
}

func (hr *HashRate) Add(num float64) {
	hr.currentPos = (hr.currentPos + 1) % historyLen
	hr.dataSeries[hr.currentPos] = num
	if hr.filled < historyLen {
		hr.filled++
	}
}

func (hr *HashRate) Len() int {
	return hr.filled
}

func (hr *HashRate) RecentNSum(recentn int) (sum float64) {
	if recentn > hr.filled {
		recentn = hr.filled
	}
	pos := 0
	for i := 0; i < recentn; i++ {
		pos = (hr.currentPos - i)
		if pos < 0 {
			pos += historyLen
		}
		sum += hr.dataSeries[pos]
	}
	return
}

// RecentNAverage averages over at most recentn samples, fewer if the history is
// still short.
func (hr *HashRate) RecentNAverage(recentn int) float64 {
	if recentn > hr.filled {
		recentn = hr.filled
	}
	if recentn <= 0 {
		return 0
	}
	return hr.RecentNSum(recentn) / float64(recentn)
}

// Recent returns up to n samples, oldest first.
func (hr *HashRate) Recent(n int) []float64 {
	if n > hr.filled {
		n = hr.filled
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		pos := hr.currentPos - i
		if pos < 0 {
			pos += historyLen
		}
		out[n-1-i] = hr.dataSeries[pos]
	}
	return out
}
