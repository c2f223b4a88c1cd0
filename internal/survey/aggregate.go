package survey

import (
	"fmt"
	"math"
)

// Summary is the aggregate view of one reporting window. The caller expects
// a single-element list of these.
type Summary struct {
	TotalCalls         int                           `json:"Total_Calls"`
	SurveyParticipated string                        `json:"Survey_Participated"`
	QuestionAverages   map[string]map[string]float64 `json:"Question_Averages"`
}

// Summarize filters records to chat interactions where the chatbot was used
// and computes per-question answer distributions. Percentages are relative
// to the filtered participant count, not the per-question answer count.
func Summarize(records []Record) []Summary {
	var participants []Record
	for _, rec := range records {
		if rec.IsChat() && rec.ChatBotUsed() {
			participants = append(participants, rec)
		}
	}

	answers := make(map[string][]string, len(Questions))
	for _, rec := range participants {
		for _, q := range Questions {
			if v, ok := rec.Answers[q]; ok && v != "" {
				answers[q] = append(answers[q], v)
			}
		}
	}

	averages := make(map[string]map[string]float64, len(Questions))
	for _, q := range Questions {
		averages[q] = percentageByParticipant(answers[q], len(participants))
	}

	return []Summary{
		{
			TotalCalls:         len(records),
			SurveyParticipated: fmt.Sprintf("Chat : %d", len(participants)),
			QuestionAverages:   averages,
		},
	}
}

// percentageByParticipant computes the share of each distinct answer value
// against the given participant total, rounded to two decimal places.
func percentageByParticipant(values []string, totalParticipants int) map[string]float64 {
	result := map[string]float64{}
	if len(values) == 0 || totalParticipants == 0 {
		return result
	}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	for v, n := range counts {
		result[v] = math.Round(float64(n)/float64(totalParticipants)*100*100) / 100
	}
	return result
}
