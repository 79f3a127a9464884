// Package board 实现任务看板的展示规则：视图过滤和统计。
package board

import (
	"fmt"
	"math"
	"strings"

	"taskboard/internal/model"
)

type View string

const (
	ViewAll       View = "all"
	ViewActive    View = "active"
	ViewCompleted View = "completed"
)

// ParseView 空字符串视为 all
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(s)) {
	case "", ViewAll:
		return ViewAll, nil
	case ViewActive:
		return ViewActive, nil
	case ViewCompleted:
		return ViewCompleted, nil
	}
	return "", fmt.Errorf("unknown view %q (want all, active or completed)", s)
}

// Filter 任务列表的过滤条件。笔记永远不出现在任务列表里
type Filter struct {
	Search string
	View   View
}

func (f Filter) Match(t model.Task) bool {
	if t.IsNote {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	switch f.View {
	case ViewActive:
		return t.Status != model.StatusDone
	case ViewCompleted:
		return t.Status == model.StatusDone
	}
	return true
}

// Apply 保留输入顺序
func (f Filter) Apply(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Notes 只返回笔记
func Notes(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0)
	for _, t := range tasks {
		if t.IsNote {
			out = append(out, t)
		}
	}
	return out
}

type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Remaining  int `json:"remaining"`
	Progress   int `json:"progress"` // 0 到 100
}

// Summarize 只统计非笔记任务；空集合的进度为 0
func Summarize(tasks []model.Task) Stats {
	var s Stats
	for _, t := range tasks {
		if t.IsNote {
			continue
		}
		s.Total++
		switch t.Status {
		case model.StatusDone:
			s.Completed++
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusTodo:
			s.Remaining++
		}
	}
	if s.Total > 0 {
		s.Progress = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
