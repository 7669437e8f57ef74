package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/soundscape/parameter"
)

// PipeDevice streams s16le stereo into an external player process or OSS device
type PipeDevice struct {
	backend *BackendConfig
	rate    beep.SampleRate

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File

	started  atomic.Bool
	stopped  atomic.Bool
	stopChan chan struct{}
	errChan  chan error
	wg       sync.WaitGroup
}

// NewPipeDevice creates an unstarted pipe device for backend
func NewPipeDevice(backend *BackendConfig, rate beep.SampleRate) *PipeDevice {
	return &PipeDevice{
		backend:  backend,
		rate:     rate,
		stopChan: make(chan struct{}),
		errChan:  make(chan error, 1),
	}
}

func (d *PipeDevice) SampleRate() beep.SampleRate {
	return d.rate
}

// Backend returns the detected player description
func (d *PipeDevice) Backend() *BackendConfig {
	return d.backend
}

// Start launches the player and the writer loop
func (d *PipeDevice) Start(src beep.Streamer) error {
	if !d.started.CompareAndSwap(false, true) {
		return fmt.Errorf("pipe device already started")
	}

	var writer io.Writer
	if d.backend.Type == BackendOSS {
		f, err := os.OpenFile(d.backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		d.ossFile = f
		writer = f
	} else {
		cmd := exec.Command(d.backend.Path, d.backend.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return err
		}
		if err := cmd.Start(); err != nil {
			stdin.Close()
			return err
		}
		d.cmd = cmd
		d.stdin = stdin
		writer = stdin

		d.wg.Add(1)
		go d.monitorProcess()
	}

	d.wg.Add(1)
	go d.loop(src, writer)
	return nil
}

// Errors returns the channel that receives the first write failure
// Closed once the device is closed
func (d *PipeDevice) Errors() <-chan error {
	return d.errChan
}

// Close terminates the writer loop and the player
func (d *PipeDevice) Close() error {
	if !d.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(d.stopChan)

	if d.stdin != nil {
		d.stdin.Close()
	}
	if d.ossFile != nil {
		d.ossFile.Close()
	}
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}

	d.wg.Wait()
	close(d.errChan)
	return nil
}

// monitor closes ctx on the first write failure so sessions stop feeding a dead player
// Returns when the device closes
func (d *PipeDevice) monitor(ctx *Context) {
	err, ok := <-d.Errors()
	if !ok {
		return
	}
	log.Printf("audio: %s output failed: %v", d.backend.Name, err)
	ctx.Close()
}

// monitorProcess watches for player exit
func (d *PipeDevice) monitorProcess() {
	defer d.wg.Done()

	if err := d.cmd.Wait(); err != nil && !d.stopped.Load() {
		log.Printf("audio: %s exited: %v", d.backend.Name, err)
	}
}

// loop pulls one buffer per tick and writes it to the player
// Blocking writes pace the loop when the player buffer is full
func (d *PipeDevice) loop(src beep.Streamer, out io.Writer) {
	defer d.wg.Done()

	ticker := time.NewTicker(parameter.AudioBufferDuration)
	defer ticker.Stop()

	frames := d.rate.N(parameter.AudioBufferDuration)
	buf := make([][2]float64, frames)
	outBytes := make([]byte, frames*parameter.AudioBytesPerFrame)

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			n, ok := src.Stream(buf)
			if !ok {
				n = 0
			}
			for i := n; i < len(buf); i++ {
				buf[i] = [2]float64{}
			}
			floatToBytes(buf, outBytes)

			if _, err := out.Write(outBytes); err != nil {
				if !d.stopped.Load() {
					select {
					case d.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
					default:
					}
				}
				return
			}
		}
	}
}

// floatToBytes converts float64 stereo to interleaved int16 LE bytes
// Applies soft limiting before hard clip
func floatToBytes(in [][2]float64, out []byte) {
	for i, frame := range in {
		for ch, v := range frame {
			binary.LittleEndian.PutUint16(out[i*4+ch*2:], uint16(int16(softClip(v)*32767)))
		}
	}
}

// softClip limits v to [-1, 1] with a gentle knee above 0.8
func softClip(v float64) float64 {
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}
	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return v
}
