// Package rendertest provides a recording, in-memory renderer.Device for
// exercising the frame core without a GPU.
//
// Every call made against the fake is appended to the device's call log as
// "<object>#<id>.<op>", e.g. "fence#1.wait" or "swapchain#0.acquire", so tests
// can assert on ordering. Submissions signal their fence immediately unless
// HoldSubmissions is set, in which case fences stay unsignaled until
// CompleteSubmissions or WaitIdle is called.
package rendertest

import (
	"fmt"
	"strings"
	"time"

	"github.com/spaghettifunk/ignis/engine/core"
	"github.com/spaghettifunk/ignis/engine/renderer"
)

type Device struct {
	// Number of images each swapchain is built with. Defaults to 3.
	ImageCount int
	// When set, overrides the extent granted to every swapchain.
	GrantedExtent *renderer.Extent2D
	// Formats the fake surface supports. Defaults to B8G8R8A8 UNORM.
	SupportedFormats []renderer.Format
	// Scripted results for successive acquires and presents. A nil entry,
	// or an exhausted script, means success.
	AcquireResults []error
	PresentResults []error
	// Keep submitted fences unsignaled until CompleteSubmissions.
	HoldSubmissions bool

	calls      []string
	nextID     map[string]int
	queue      *Queue
	fences     []*Fence
	recorders  []*Recorder
	semaphores []*Semaphore
	swapchains []*Swapchain
	pending    []*Fence
}

func NewDevice() *Device {
	d := &Device{
		ImageCount:       3,
		SupportedFormats: []renderer.Format{renderer.FormatB8G8R8A8Unorm},
		nextID:           make(map[string]int),
	}
	d.queue = &Queue{device: d}
	return d
}

func (d *Device) id(kind string) int {
	id := d.nextID[kind]
	d.nextID[kind] = id + 1
	return id
}

func (d *Device) record(kind string, id int, op string) {
	d.calls = append(d.calls, fmt.Sprintf("%s#%d.%s", kind, id, op))
}

// Calls returns the call log.
func (d *Device) Calls() []string {
	return append([]string(nil), d.calls...)
}

// CallsWithSuffix returns the logged calls ending in suffix, e.g. ".wait".
func (d *Device) CallsWithSuffix(suffix string) []string {
	var out []string
	for _, c := range d.calls {
		if strings.HasSuffix(c, suffix) {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (d *Device) ResetCalls() {
	d.calls = nil
}

// CompleteSubmissions signals every fence whose submission is still pending.
func (d *Device) CompleteSubmissions() {
	for _, f := range d.pending {
		f.signaled = true
	}
	d.pending = nil
}

func (d *Device) Fences() []*Fence {
	return d.fences
}

func (d *Device) Recorders() []*Recorder {
	return d.recorders
}

func (d *Device) Semaphores() []*Semaphore {
	return d.semaphores
}

func (d *Device) Swapchains() []*Swapchain {
	return d.swapchains
}

func (d *Device) Submissions() []renderer.Submission {
	return d.queue.submissions
}

func (d *Device) GraphicsQueue() renderer.Queue {
	return d.queue
}

func (d *Device) NewFence(signaled bool) (renderer.Fence, error) {
	f := &Fence{device: d, ID: d.id("fence"), signaled: signaled}
	d.record("fence", f.ID, "create")
	d.fences = append(d.fences, f)
	return f, nil
}

func (d *Device) NewSemaphore() (renderer.Semaphore, error) {
	s := &Semaphore{device: d, ID: d.id("semaphore")}
	d.record("semaphore", s.ID, "create")
	d.semaphores = append(d.semaphores, s)
	return s, nil
}

func (d *Device) NewCommandRecorder(queueFamily uint32) (renderer.CommandRecorder, error) {
	r := &Recorder{device: d, ID: d.id("recorder"), QueueFamily: queueFamily}
	d.record("recorder", r.ID, "create")
	d.recorders = append(d.recorders, r)
	return r, nil
}

func (d *Device) CreateSwapchain(request renderer.SwapchainRequest) (renderer.Swapchain, error) {
	supported := false
	for _, f := range d.SupportedFormats {
		if f == request.Format {
			supported = true
			break
		}
	}
	if !supported {
		return nil, core.ErrUnsupportedFormat
	}

	extent := renderer.Extent2D{Width: request.Width, Height: request.Height}
	if d.GrantedExtent != nil {
		extent = *d.GrantedExtent
	}
	sc := &Swapchain{
		device:  d,
		ID:      d.id("swapchain"),
		Request: request,
		format:  request.Format,
		extent:  extent,
	}
	for i := 0; i < d.ImageCount; i++ {
		sc.images = append(sc.images, &Image{Index: i, format: request.Format, extent: extent})
	}
	d.record("swapchain", sc.ID, "create")
	d.swapchains = append(d.swapchains, sc)
	return sc, nil
}

// WaitIdle completes all pending submissions.
func (d *Device) WaitIdle() error {
	d.calls = append(d.calls, "device.wait_idle")
	d.CompleteSubmissions()
	return nil
}

type Queue struct {
	device      *Device
	submissions []renderer.Submission
}

func (q *Queue) FamilyIndex() uint32 {
	return 0
}

func (q *Queue) Submit(submission renderer.Submission) error {
	q.device.calls = append(q.device.calls, "queue.submit")
	q.submissions = append(q.submissions, submission)
	if rec, ok := submission.Recorder.(*Recorder); ok {
		rec.Submitted++
	}
	if f, ok := submission.Fence.(*Fence); ok && f != nil {
		if q.device.HoldSubmissions {
			q.device.pending = append(q.device.pending, f)
		} else {
			f.signaled = true
		}
	}
	return nil
}

type Fence struct {
	device    *Device
	ID        int
	signaled  bool
	Destroyed bool
}

func (f *Fence) Signaled() bool {
	return f.signaled
}

func (f *Fence) Wait(timeout time.Duration) error {
	f.device.record("fence", f.ID, "wait")
	if !f.signaled {
		return fmt.Errorf("fence#%d not signaled after %s: %w", f.ID, timeout, core.ErrDeviceTimeout)
	}
	return nil
}

func (f *Fence) Reset() error {
	f.device.record("fence", f.ID, "reset")
	f.signaled = false
	return nil
}

func (f *Fence) Destroy() {
	f.device.record("fence", f.ID, "destroy")
	f.Destroyed = true
}

type Semaphore struct {
	device    *Device
	ID        int
	Destroyed bool
}

func (s *Semaphore) Destroy() {
	s.device.record("semaphore", s.ID, "destroy")
	s.Destroyed = true
}

// ClearCall is one recorded ClearColorImage.
type ClearCall struct {
	Image  renderer.Image
	Layout renderer.ImageLayout
	Color  renderer.Color
}

type Recorder struct {
	device      *Device
	ID          int
	QueueFamily uint32
	Recording   bool
	Submitted   int
	Destroyed   bool
	Barriers    []renderer.ImageBarrier
	Clears      []ClearCall
}

func (r *Recorder) Reset() error {
	r.device.record("recorder", r.ID, "reset")
	r.Recording = false
	return nil
}

func (r *Recorder) Begin(oneTimeSubmit bool) error {
	r.device.record("recorder", r.ID, "begin")
	r.Recording = true
	return nil
}

func (r *Recorder) PipelineBarrier(barrier renderer.ImageBarrier) {
	r.device.record("recorder", r.ID, "barrier")
	r.Barriers = append(r.Barriers, barrier)
}

func (r *Recorder) ClearColorImage(image renderer.Image, layout renderer.ImageLayout, color renderer.Color) {
	r.device.record("recorder", r.ID, "clear")
	r.Clears = append(r.Clears, ClearCall{Image: image, Layout: layout, Color: color})
}

func (r *Recorder) End() error {
	r.device.record("recorder", r.ID, "end")
	r.Recording = false
	return nil
}

func (r *Recorder) Destroy() {
	r.device.record("recorder", r.ID, "destroy")
	r.Destroyed = true
}

type Image struct {
	Index  int
	format renderer.Format
	extent renderer.Extent2D
}

func (i *Image) Format() renderer.Format {
	return i.format
}

func (i *Image) Extent() renderer.Extent2D {
	return i.extent
}

type Swapchain struct {
	device    *Device
	ID        int
	Request   renderer.SwapchainRequest
	format    renderer.Format
	extent    renderer.Extent2D
	images    []renderer.Image
	next      uint32
	Destroyed bool
	// Image indices handed out by successful acquires, in order.
	Acquired []uint32
	// Image indices presented, in order.
	Presented []uint32
}

func (s *Swapchain) Images() []renderer.Image {
	return s.images
}

func (s *Swapchain) Format() renderer.Format {
	return s.format
}

func (s *Swapchain) Extent() renderer.Extent2D {
	return s.extent
}

func (s *Swapchain) AcquireNextImage(timeout time.Duration, signal renderer.Semaphore) (uint32, error) {
	s.device.record("swapchain", s.ID, "acquire")
	if len(s.device.AcquireResults) > 0 {
		err := s.device.AcquireResults[0]
		s.device.AcquireResults = s.device.AcquireResults[1:]
		if err != nil {
			return 0, err
		}
	}
	index := s.next
	s.next = (s.next + 1) % uint32(len(s.images))
	s.Acquired = append(s.Acquired, index)
	return index, nil
}

func (s *Swapchain) Present(imageIndex uint32, wait renderer.Semaphore) error {
	s.device.record("swapchain", s.ID, "present")
	s.Presented = append(s.Presented, imageIndex)
	if len(s.device.PresentResults) > 0 {
		err := s.device.PresentResults[0]
		s.device.PresentResults = s.device.PresentResults[1:]
		return err
	}
	return nil
}

func (s *Swapchain) Destroy() {
	s.device.record("swapchain", s.ID, "destroy")
	s.Destroyed = true
}
