package main

import (
	"bufio"
	"os"
	"os/exec"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/creack/pty"
)

// Headless assistant runs. Instead of spawning a terminal window, a job
// executes the assistant CLI with the composed prompt inside a pty and
// streams its output into the hub's log pane. Jobs run one at a time; a
// second request queues behind the first.

type jobMsg interface {
	isJob()
}

type jobStartedMsg struct {
	Title string
}

type jobLogMsg struct {
	Title string
	Line  string
}

type jobFinishedMsg struct {
	Title string
	Err   error
}

type jobChannelClosedMsg struct{}

func (jobStartedMsg) isJob()       {}
func (jobLogMsg) isJob()           {}
func (jobFinishedMsg) isJob()      {}
func (jobChannelClosedMsg) isJob() {}

type jobRequest struct {
	title    string
	dir      string
	command  string
	args     []string
	env      []string
	onFinish func(error) tea.Cmd
}

// assistantJob builds a headless run of the assistant CLI for a project.
func assistantJob(title, projectPath, prompt string, onFinish func(error) tea.Cmd) jobRequest {
	return jobRequest{
		title:    title,
		dir:      projectPath,
		command:  "claude",
		args:     []string{"-p", prompt},
		onFinish: onFinish,
	}
}

type jobManager struct {
	queue   []jobRequest
	current *jobRequest
	running bool
	ch      chan jobMsg
}

func newJobManager() *jobManager {
	return &jobManager{}
}

func (jm *jobManager) Running() (string, bool) {
	if jm.running && jm.current != nil {
		return jm.current.title, true
	}
	return "", false
}

func (jm *jobManager) Enqueue(req jobRequest) tea.Cmd {
	jm.queue = append(jm.queue, req)
	return jm.nextCmd()
}

// Handle consumes one job message and returns the command that waits for
// the next one, plus any finish callback.
func (jm *jobManager) Handle(msg jobMsg) tea.Cmd {
	switch msg := msg.(type) {
	case jobFinishedMsg:
		var finish tea.Cmd
		if jm.current != nil && jm.current.onFinish != nil {
			finish = jm.current.onFinish(msg.Err)
		}
		jm.running = false
		jm.current = nil
		next := jm.nextCmd()
		if finish != nil && next != nil {
			return tea.Batch(finish, next)
		}
		if finish != nil {
			return finish
		}
		return next
	case jobChannelClosedMsg:
		jm.running = false
		jm.current = nil
		jm.ch = nil
		return jm.nextCmd()
	default:
		return jm.waitCmd()
	}
}

func (jm *jobManager) nextCmd() tea.Cmd {
	if jm.running || len(jm.queue) == 0 {
		return nil
	}
	req := jm.queue[0]
	jm.queue = jm.queue[1:]
	jm.current = &req
	jm.running = true

	jm.ch = make(chan jobMsg)
	go runJob(req, jm.ch)
	return jm.waitCmd()
}

func (jm *jobManager) waitCmd() tea.Cmd {
	ch := jm.ch
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return jobChannelClosedMsg{}
		}
		return msg
	}
}

func runJob(req jobRequest, ch chan<- jobMsg) {
	defer close(ch)

	ch <- jobStartedMsg{Title: req.title}

	cmd := exec.Command(req.command, req.args...)
	if req.dir != "" {
		cmd.Dir = req.dir
	}
	if len(req.env) > 0 {
		env := append([]string{}, os.Environ()...)
		env = append(env, req.env...)
		cmd.Env = env
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		ch <- jobLogMsg{Title: req.title, Line: err.Error()}
		ch <- jobFinishedMsg{Title: req.title, Err: err}
		return
	}
	defer ptmx.Close()

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(ptmx)
		for scanner.Scan() {
			ch <- jobLogMsg{Title: req.title, Line: scanner.Text()}
		}
	}()

	wg.Wait()
	err = cmd.Wait()
	ch <- jobFinishedMsg{Title: req.title, Err: err}
}
