// Package aggregator turns raw score records into weighted averages and pass-rate
// statistics. Everything here is pure: callers load records and hand them in.
package aggregator

import "github.com/noah-isme/grade-stats-api/internal/models"

// Weights maps each known score type to its share of the composite average.
var Weights = map[models.ScoreType]float64{
	models.ScoreTypeExam:     0.5,
	models.ScoreTypeQuiz:     0.3,
	models.ScoreTypeHomework: 0.2,
}

// weightOrder fixes the summation order so results are bit-for-bit reproducible.
var weightOrder = []models.ScoreType{models.ScoreTypeExam, models.ScoreTypeQuiz, models.ScoreTypeHomework}

// DefaultPassThreshold is the inclusive average a learner needs to qualify.
const DefaultPassThreshold = 70.0

// Mean returns the arithmetic mean of scores. ok is false for an empty set.
func Mean(scores []float64) (mean float64, ok bool) {
	if len(scores) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), true
}

// WeightedAverage computes 0.5*exam + 0.3*quiz + 0.2*homework over the entries'
// per-type means. Entries of unknown type are ignored.
func WeightedAverage(entries []models.ScoreEntry) float64 {
	byType := make(map[models.ScoreType][]float64, len(weightOrder))
	for _, entry := range entries {
		if _, known := Weights[entry.Type]; !known {
			continue
		}
		byType[entry.Type] = append(byType[entry.Type], entry.Score)
	}

	avg := 0.0
	for _, scoreType := range weightOrder {
		mean, ok := Mean(byType[scoreType])
		if !ok {
			// Missing category: contributes nothing, other weights are not rescaled.
			continue
		}
		avg += mean * Weights[scoreType]
	}
	return avg
}

// ClassAveragesForLearner returns one weighted average per class the learner has
// records in, in the order each class first appears. Records of other learners
// are skipped, so an unknown learner yields an empty slice.
func ClassAveragesForLearner(records []models.ScoreRecord, learnerID int) []models.ClassAverage {
	order := make([]int, 0)
	groups := make(map[int][]models.ScoreEntry)
	for _, record := range records {
		if record.LearnerID != learnerID {
			continue
		}
		if _, seen := groups[record.ClassID]; !seen {
			order = append(order, record.ClassID)
			groups[record.ClassID] = nil
		}
		groups[record.ClassID] = append(groups[record.ClassID], record.Scores...)
	}

	result := make([]models.ClassAverage, 0, len(order))
	for _, classID := range order {
		result = append(result, models.ClassAverage{ClassID: classID, Avg: WeightedAverage(groups[classID])})
	}
	return result
}

// LearnerAverages groups records by learner and returns each learner's weighted
// average in first-seen order.
func LearnerAverages(records []models.ScoreRecord) []models.LearnerAverage {
	order := make([]int, 0)
	groups := make(map[int][]models.ScoreEntry)
	for _, record := range records {
		if _, seen := groups[record.LearnerID]; !seen {
			order = append(order, record.LearnerID)
			groups[record.LearnerID] = nil
		}
		groups[record.LearnerID] = append(groups[record.LearnerID], record.Scores...)
	}

	result := make([]models.LearnerAverage, 0, len(order))
	for _, learnerID := range order {
		result = append(result, models.LearnerAverage{LearnerID: learnerID, Avg: WeightedAverage(groups[learnerID])})
	}
	return result
}

// Qualifying keeps the averages at or above threshold.
func Qualifying(averages []models.LearnerAverage, threshold float64) []models.LearnerAverage {
	result := make([]models.LearnerAverage, 0, len(averages))
	for _, avg := range averages {
		if avg.Avg >= threshold {
			result = append(result, avg)
		}
	}
	return result
}

// PassRate summarises averages against the population size. population is the
// number of distinct learners in scope and is supplied separately from averages.
// An empty population reports 0%.
func PassRate(averages []models.LearnerAverage, population int, threshold float64) models.StatsSummary {
	qualifying := len(Qualifying(averages, threshold))
	summary := models.StatsSummary{TotalLearners: population, Learners: qualifying}
	if population <= 0 {
		return summary
	}
	summary.Percentage = float64(qualifying) / float64(population) * 100
	return summary
}
