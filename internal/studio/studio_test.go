package studio

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunAction(t *testing.T) {
	tests := []struct {
		name    string
		run     func(action func()) error
		wantErr bool
	}{
		{
			name: "actionRunsInline",
			run: func(action func()) error {
				action()
				return nil
			},
		},
		{
			name: "runnerFailsBeforeAction",
			run: func(action func()) error {
				return errors.New("no tty")
			},
			wantErr: true,
		},
		{
			name: "runnerInterruptedWhileActionRuns",
			run: func(action func()) error {
				started := make(chan struct{})
				go func() {
					close(started)
					action()
				}()
				<-started
				return errors.New("interrupted")
			},
			wantErr: true,
		},
		{
			name: "actionStartsAfterRunnerReturns",
			run: func(action func()) error {
				go func() {
					time.Sleep(10 * time.Millisecond)
					action()
				}()
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			finished := false

			err := runAction(tt.run, func() {
				atomic.AddInt32(&calls, 1)
				time.Sleep(20 * time.Millisecond)
				finished = true
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runAction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !finished {
				t.Error("runAction() returned before fn finished")
			}

			time.Sleep(30 * time.Millisecond)
			if got := atomic.LoadInt32(&calls); got != 1 {
				t.Errorf("fn ran %d times, want 1", got)
			}
		})
	}
}
