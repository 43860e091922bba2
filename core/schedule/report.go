package schedule

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// TrainReport summarises the time one train spends on its journey.
type TrainReport struct {
	TrainID   int           `json:"train_id"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Total     time.Duration `json:"total"`
	Waiting   time.Duration `json:"waiting"`
	Assemble  time.Duration `json:"assemble"`
	Conflicts int           `json:"conflicts"`
	// LostShare is waiting plus assembly time over total time, in [0,1].
	LostShare float64 `json:"lost_share"`
}

// Lost is the time the train stands still.
func (r TrainReport) Lost() time.Duration { return r.Waiting + r.Assemble }

// Report aggregates lost time over a schedule.
type Report struct {
	Trains        []TrainReport `json:"trains"`
	TotalLost     time.Duration `json:"total_lost"`
	MeanLost      time.Duration `json:"mean_lost"`
	StdDevLost    time.Duration `json:"stddev_lost"`
	Conflicts     int           `json:"conflicts"`
	LostShareMean float64       `json:"lost_share_mean"`
}

// Summarize computes per-train and global lost time.
func Summarize(s *Schedule) Report {
	var rep Report
	var lost, shares []float64
	for _, id := range s.TrainIDs() {
		tr := summarizeTrain(id, s.Timeline(id))
		rep.Trains = append(rep.Trains, tr)
		rep.TotalLost += tr.Lost()
		rep.Conflicts += tr.Conflicts
		lost = append(lost, tr.Lost().Seconds())
		shares = append(shares, tr.LostShare)
	}
	if len(lost) > 0 {
		rep.MeanLost = seconds(stat.Mean(lost, nil))
		rep.LostShareMean = stat.Mean(shares, nil)
	}
	if len(lost) > 1 {
		rep.StdDevLost = seconds(stat.StdDev(lost, nil))
	}
	return rep
}

func summarizeTrain(id int, events []Event) TrainReport {
	tr := TrainReport{TrainID: id}
	for i, e := range events {
		if i == 0 || e.Interval.Start.Before(tr.Start) {
			tr.Start = e.Interval.Start
		}
		if e.Interval.End.After(tr.End) {
			tr.End = e.Interval.End
		}
		switch e.Type {
		case Waiting:
			tr.Waiting += e.Interval.Duration()
			tr.Conflicts++
		case WaitingForAssemble:
			tr.Assemble += e.Interval.Duration()
		}
	}
	tr.Total = tr.End.Sub(tr.Start)
	if tr.Total > 0 {
		tr.LostShare = float64(tr.Lost()) / float64(tr.Total)
	}
	return tr
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second)).Round(time.Millisecond)
}
