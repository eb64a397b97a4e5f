package features

type bucket struct {
	label string
	upper float64
}

// Buckets are right-inclusive: a value v falls in the first bucket with lower < v <= upper.
var (
	ageBuckets = bucketSet{lower: 0, buckets: []bucket{
		{"18-30", 30}, {"31-40", 40}, {"41-50", 50}, {"51-60", 60}, {"60+", 100},
	}}
	tenureBuckets = bucketSet{lower: -1, buckets: []bucket{
		{"0-2", 2}, {"3-5", 5}, {"6-8", 8}, {"9-10", 11},
	}}
	creditScoreBuckets = bucketSet{lower: 0, buckets: []bucket{
		{"Low", 600}, {"Medium", 700}, {"High", 850},
	}}
)

type bucketSet struct {
	lower   float64
	buckets []bucket
}

func (b bucketSet) label(v float64) (string, bool) {
	if v <= b.lower {
		return "", false
	}
	for _, bk := range b.buckets {
		if v <= bk.upper {
			return bk.label, true
		}
	}
	return "", false
}

func (b bucketSet) labels() []string {
	out := make([]string, len(b.buckets))
	for i, bk := range b.buckets {
		out[i] = bk.label
	}
	return out
}

func AgeGroup(age int) (string, bool) {
	return ageBuckets.label(float64(age))
}

func TenureGroup(tenure int) (string, bool) {
	return tenureBuckets.label(float64(tenure))
}

func CreditScoreGroup(score int) (string, bool) {
	return creditScoreBuckets.label(float64(score))
}
