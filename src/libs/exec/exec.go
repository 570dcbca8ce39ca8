package exec

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Exec runs one child process at a time.
//
// Done is closed when the running process exits, by itself or by Stop.
type Exec struct {
	path string
	args []string
	env  []string

	cmd   *exec.Cmd
	done  chan struct{}
	err   error
	cmdMu sync.RWMutex
}

func NewExec(path string, args ...string) Exec {
	return Exec{
		path: path,
		args: args,
	}
}

// SetEnv replaces the KEY=VALUE pairs put on top of the current environment,
// it takes effect at the next Start
func (e *Exec) SetEnv(env ...string) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	e.env = env
}

func (e *Exec) Path() string {
	return e.path
}

func (e *Exec) Args() []string {
	return e.args
}

func (e *Exec) startCmd() error {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	if e.cmd != nil {
		return fmt.Errorf("exec cmd exists")
	}

	cmd := exec.Command(
		e.path,
		e.args...,
	)

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(e.env) > 0 {
		// later duplicates win in exec
		cmd.Env = append(os.Environ(), e.env...)
	}

	err := cmd.Start()
	if err != nil {
		return err
	}

	done := make(chan struct{})
	e.cmd = cmd
	e.done = done
	e.err = nil

	go func() {
		err := cmd.Wait()

		e.cmdMu.Lock()
		e.err = err
		if e.cmd == cmd {
			e.cmd = nil
		}
		e.cmdMu.Unlock()

		close(done)
	}()

	return nil
}

func (e *Exec) stopCmd() error {
	e.cmdMu.RLock()
	cmd := e.cmd
	done := e.done
	e.cmdMu.RUnlock()

	if cmd == nil {
		return fmt.Errorf("exec null cmd")
	}

	// interrupt first, gst-launch sends eos on sigint with -e
	err := cmd.Process.Signal(os.Interrupt)
	if err == nil {
		select {
		case <-done:
			return nil
		case <-time.After(5 * time.Second):
		}
	}

	err = cmd.Process.Kill()
	<-done

	return err
}

func (e *Exec) Start() error {
	return e.startCmd()
}

func (e *Exec) Stop() {
	err := e.stopCmd()
	if err != nil {
		log.Println("exec stop error", e.path, err)
	}
}

// Done returns nil before the first Start
func (e *Exec) Done() <-chan struct{} {
	e.cmdMu.RLock()
	defer e.cmdMu.RUnlock()

	return e.done
}

// Err is the exit error of the last process
func (e *Exec) Err() error {
	e.cmdMu.RLock()
	defer e.cmdMu.RUnlock()

	return e.err
}
