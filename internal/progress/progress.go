package progress

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vitruves/metricalc/internal/logger"
	"github.com/Vitruves/metricalc/internal/utils"
)

const barWidth = 30

// Progress draws a single sticky status line for a batch of files.
type Progress struct {
	total        int64
	current      int64
	failed       int64
	startTime    time.Time
	done         chan struct{}
	stopped      chan struct{}
	displayChan  chan struct{}
	messageQueue chan string
	mu           sync.Mutex
	isVisible    bool
	stopOnce     sync.Once
}

func New(total int) *Progress {
	return &Progress{
		total:        int64(total),
		startTime:    time.Now(),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		displayChan:  make(chan struct{}, 1),
		messageQueue: make(chan string, 100),
	}
}

func (p *Progress) Start() {
	logger.Info("Processing %d files", p.total)
	fmt.Print("\033[?25l")
	p.mu.Lock()
	p.isVisible = true
	p.mu.Unlock()

	ticker := time.NewTicker(time.Second)
	go func() {
		defer close(p.stopped)
		defer ticker.Stop()

		for {
			select {
			case <-p.done:
				p.drainMessages()
				p.displayFinal()
				return
			case <-ticker.C:
				p.redraw()
			case <-p.displayChan:
				p.redraw()
			case msg := <-p.messageQueue:
				p.showMessage(msg)
			}
		}
	}()
}

// LogMessage prints a line above the bar. Messages are dropped when the
// queue is full.
func (p *Progress) LogMessage(message string) {
	select {
	case p.messageQueue <- message:
	default:
	}
}

// Increment records one finished file.
func (p *Progress) Increment(failed bool) {
	atomic.AddInt64(&p.current, 1)
	if failed {
		atomic.AddInt64(&p.failed, 1)
	}
	select {
	case p.displayChan <- struct{}{}:
	default:
	}
}

func (p *Progress) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		<-p.stopped
	})
}

func (p *Progress) drainMessages() {
	for {
		select {
		case msg := <-p.messageQueue:
			p.showMessage(msg)
		default:
			return
		}
	}
}

func (p *Progress) showMessage(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Print("\r\033[K")
	logger.Warning("%s", message)
	if p.isVisible {
		fmt.Print(p.line())
	}
}

func (p *Progress) redraw() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isVisible {
		fmt.Print(p.line())
	}
}

func (p *Progress) line() string {
	current := atomic.LoadInt64(&p.current)
	failed := atomic.LoadInt64(&p.failed)

	percent := utils.CalculatePercentage(int(current), int(p.total))

	filled := int(float64(barWidth) * percent / 100)
	if filled > barWidth {
		filled = barWidth
	}

	barColor := logger.ColorCyan
	if current == p.total {
		barColor = logger.ColorGreen
	} else if failed > 0 {
		barColor = logger.ColorRed
	}

	bar := barColor + strings.Repeat("█", filled) + logger.ColorReset + strings.Repeat("░", barWidth-filled)

	failedText := ""
	if failed > 0 {
		failedText = fmt.Sprintf(" | %sfailed: %d%s", logger.ColorRed, failed, logger.ColorReset)
	}

	return fmt.Sprintf("\r%s%s%s - %s%sINFO%s : %s%.1f%%%s|%s| %s%d/%d%s %s[%s]%s%s\033[K",
		logger.ColorBlue, time.Now().Format("15:04"), logger.ColorReset,
		logger.ColorCyan, logger.ColorBold, logger.ColorReset,
		logger.ColorYellow, percent, logger.ColorReset,
		bar,
		logger.ColorGreen, current, p.total, logger.ColorReset,
		logger.ColorGray, formatDuration(time.Since(p.startTime)), logger.ColorReset,
		failedText)
}

func (p *Progress) displayFinal() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.isVisible = false
	fmt.Print("\r\033[K\033[?25h")

	current := atomic.LoadInt64(&p.current)
	failed := atomic.LoadInt64(&p.failed)
	if failed > 0 {
		logger.Warning("Finished %d of %d files, %d failed", current, p.total, failed)
	} else {
		logger.Success("Finished %d of %d files", current, p.total)
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}

	seconds := int(d.Seconds())
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%02d:%02d", minutes, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d:%02d", minutes/60, minutes%60, seconds%60)
}
