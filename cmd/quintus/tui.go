package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fwachter/quintus/search"
)

type composeModel struct {
	progress chan search.Progress

	round      int
	beamSize   int
	candidates int
	deadEnds   int
	trials     int
	rollouts   int
	bestReward float64
	hasBest    bool
	startTime  time.Time
	done       bool
}

func newComposeModel(progress chan search.Progress) composeModel {
	return composeModel{
		progress:  progress,
		startTime: time.Now(),
	}
}

type tickMsg time.Time

type searchDoneMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForProgress(progress chan search.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-progress
		if !ok {
			return searchDoneMsg{}
		}
		return p
	}
}

func (m composeModel) Init() tea.Cmd {
	return tea.Batch(waitForProgress(m.progress), tickCmd())
}

func (m composeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		return m, tickCmd()
	case search.Progress:
		m.round = msg.Round
		m.beamSize = msg.BeamSize
		m.candidates = msg.NCandidates
		m.deadEnds = msg.NDeadEnds
		m.trials = msg.NTrials
		m.rollouts = msg.NRollouts
		m.bestReward = msg.BestReward
		m.hasBest = msg.HasBest
		return m, waitForProgress(m.progress)
	case searchDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m composeModel) View() string {
	duration := time.Since(m.startTime)
	rolloutsPerSec := float64(m.rollouts) / duration.Seconds()
	if duration.Seconds() < 1 {
		rolloutsPerSec = 0
	}

	s := fmt.Sprintf("Round:        %d\n", m.round)
	s += fmt.Sprintf("Beam Size:    %d\n", m.beamSize)
	s += fmt.Sprintf("Candidates:   %d\n", m.candidates)
	s += fmt.Sprintf("Dead Ends:    %d\n", m.deadEnds)
	s += fmt.Sprintf("Trials/Cand:  %d\n", m.trials)
	s += fmt.Sprintf("Rollouts:     %d\n", m.rollouts)
	s += fmt.Sprintf("Duration:     %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Rollouts/Sec: %.2f\n", rolloutsPerSec)
	if m.hasBest {
		s += fmt.Sprintf("Best Reward:  %.5f\n", m.bestReward)
	} else {
		s += "Best Reward:  no complete line yet\n"
	}
	if m.done {
		s += "\nSearch finished.\n"
	} else {
		s += "\nPress q to quit.\n"
	}
	return s
}
