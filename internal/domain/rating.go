package domain

// AggregateReviews derives a product's review count and mean rating from its
// review slice. Pure: no I/O, fully determined by the input. Rating is the
// full-precision arithmetic mean, 0 when there are no reviews.
func AggregateReviews(reviews []Review) (count int32, rating float64) {
	if len(reviews) == 0 {
		return 0, 0
	}
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return int32(len(reviews)), float64(sum) / float64(len(reviews))
}
