package service

import (
	"math"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

// ComputeStats aggregates a book's full review set. The average covers rated
// reviews only, rounded half to even at one decimal, and is 0 when nothing is rated.
func ComputeStats(reviews []model.ReviewView) model.BookStats {
	var (
		st    model.BookStats
		sum   int
		rated int
	)
	st.TotalReviews = len(reviews)
	for _, r := range reviews {
		if r.IsLike {
			st.LikesCount++
		} else {
			st.DislikesCount++
		}
		if r.Rating != nil {
			sum += *r.Rating
			rated++
		}
	}
	if rated > 0 {
		st.AverageRating = math.RoundToEven(float64(sum)/float64(rated)*10) / 10
	}
	return st
}
