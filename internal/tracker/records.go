package tracker

type PersonalRecord struct {
	Exercise string  `json:"exercise"`
	Weight   float64 `json:"weight"`
	Reps     int     `json:"reps"`
	Date     Date    `json:"date"`
}

type PersonalRecordList []PersonalRecord

// ComputePersonalRecords returns the heaviest set per exercise name.
// Names keep the order they are first met walking workouts (most recent
// first) and sets in order; only a strictly heavier set replaces a record,
// so ties resolve to the first occurrence. limit <= 0 means no limit.
func ComputePersonalRecords(workouts []Workout, limit int) PersonalRecordList {
	records := PersonalRecordList{}
	index := make(map[string]int)

	for _, w := range workouts {
		if w.Type != WorkoutTypeStrength {
			continue
		}
		for _, ex := range w.Exercises {
			for _, set := range ex.Sets {
				i, seen := index[ex.Name]
				if !seen {
					index[ex.Name] = len(records)
					records = append(records, PersonalRecord{
						Exercise: ex.Name,
						Weight:   set.Weight,
						Reps:     set.Reps,
						Date:     w.Date,
					})
					continue
				}
				if set.Weight > records[i].Weight {
					records[i].Weight = set.Weight
					records[i].Reps = set.Reps
					records[i].Date = w.Date
				}
			}
		}
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
