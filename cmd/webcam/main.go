// Live-camera demo: capture frames, run the model, postprocess and draw.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/inference"
	"github.com/edgekit/go-yolo/models"
	"github.com/edgekit/go-yolo/models/model"
	"github.com/edgekit/go-yolo/models/pose"
	"github.com/edgekit/go-yolo/pipeline"
	"github.com/edgekit/go-yolo/profiler"
)

func main() {
	var (
		deviceID   int
		videoPath  string
		modelPath  string
		labelsPath string
		taskName   string
		numClasses int
		configPath string
		rotation   int
		showWindow bool
		profile    bool
	)
	flag.IntVar(&deviceID, "device", 0, "Video capture device ID")
	flag.StringVar(&videoPath, "video", "", "Video file instead of a camera device")
	flag.StringVar(&modelPath, "model", "yolo11n.onnx", "Path to the ONNX model")
	flag.StringVar(&labelsPath, "labels", "", "Path to a class names file (one per line); COCO by default")
	flag.StringVar(&taskName, "task", "detect", "Task: detect, segment, pose, obb or classify")
	flag.IntVar(&numClasses, "classes", len(model.CocoLabels), "Number of classes the model was trained on")
	flag.StringVar(&configPath, "config", "", "Optional YAML thresholds file")
	flag.IntVar(&rotation, "rotation", 0, "Frame rotation in degrees (0, 90, 180, 270)")
	flag.BoolVar(&showWindow, "show-window", true, "Show the visualization window")
	flag.BoolVar(&profile, "profile", false, "Log periodic runtime statistics")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	task := model.Task(taskName)
	if !task.Valid() {
		log.Fatalw("unknown task", "task", taskName)
	}

	labels := model.CocoLabels
	if labelsPath != "" {
		labels, err = model.LoadLabels(labelsPath)
		if err != nil {
			log.Fatalw("loading labels", "path", labelsPath, "error", err)
		}
	}

	thresholds := pipeline.DefaultThresholds(task)
	if configPath != "" {
		thresholds, err = pipeline.LoadThresholds(configPath, task)
		if err != nil {
			log.Fatalw("loading thresholds", "path", configPath, "error", err)
		}
	}

	outputNames := []string{"output0"}
	if task == model.TaskSegment {
		outputNames = append(outputNames, "output1")
	}
	session, err := inference.NewSession(inference.Config{
		ModelPath:   modelPath,
		OutputNames: outputNames,
	})
	if err != nil {
		log.Fatalw("creating session", "model", modelPath, "error", err)
	}
	defer session.Close()

	proc, err := pipeline.NewPipeline(pipeline.Args{
		Decoder:  models.Config{Task: task, NumClasses: numClasses},
		Labels:   labels,
		Settings: pipeline.NewSettings(thresholds),
		Logger:   logger,
	})
	if err != nil {
		log.Fatalw("creating pipeline", "error", err)
	}

	var lastResult atomic.Pointer[pipeline.Result]
	if profile {
		prof := profiler.New(profiler.Options{Logger: logger})
		prof.AddStats(func() map[string]float64 {
			r := lastResult.Load()
			if r == nil {
				return nil
			}
			return map[string]float64{
				"fps":                r.FPS,
				"processing_time_ms": r.ProcessingTimeMs,
			}
		})
		prof.Start()
		defer prof.Stop()
	}

	var capture *gocv.VideoCapture
	if videoPath != "" {
		capture, err = gocv.OpenVideoCapture(videoPath)
	} else {
		capture, err = gocv.OpenVideoCapture(deviceID)
	}
	if err != nil {
		log.Fatalw("opening capture", "error", err)
	}
	defer capture.Close()

	var window *gocv.Window
	if showWindow {
		window = gocv.NewWindow("go-yolo " + string(task))
		defer window.Close()
	}

	frame := gocv.NewMat()
	defer frame.Close()

	log.Infow("running", "task", task, "model", modelPath, "classes", numClasses)

	ctx := context.Background()
	inputW, inputH := session.InputSize()
	var previousEnd time.Time
	for {
		if ok := capture.Read(&frame); !ok {
			log.Infow("capture closed")
			return
		}
		if frame.Empty() {
			continue
		}

		start := time.Now()
		src, err := frame.ToImage()
		if err != nil {
			log.Warnw("converting frame", "error", err)
			continue
		}

		outputs, err := session.Run(ctx, inference.PrepareInput(src, inputW, inputH))
		if err != nil {
			log.Warnw("inference failed", "error", err)
			continue
		}

		result, err := proc.Process(outputs, pipeline.Frame{
			Orientation: images.Orientation{
				OriginalWidth:  frame.Cols(),
				OriginalHeight: frame.Rows(),
				Rotation:       rotation,
			},
			Start:       start,
			PreviousEnd: previousEnd,
		})
		if err != nil {
			log.Warnw("postprocess failed", "error", err)
			continue
		}
		previousEnd = time.Now()
		lastResult.Store(result)

		draw(&frame, result)
		status := fmt.Sprintf("%s | %.1fms | FPS %.1f", task, result.ProcessingTimeMs, result.FPS)
		gocv.PutText(&frame, status, image.Pt(10, 30), gocv.FontHersheyPlain, 1.2, color.RGBA{255, 255, 255, 0}, 2)

		if window != nil {
			window.IMShow(frame)
			if window.WaitKey(1) == 27 { // esc
				return
			}
		}
	}
}

// draw renders the task's detections onto the frame.
func draw(frame *gocv.Mat, result *pipeline.Result) {
	switch result.Task {
	case model.TaskClassify:
		if result.Classification == nil {
			return
		}
		lines := make([]string, 0, len(result.Classification.Top5))
		for _, p := range result.Classification.Top5 {
			lines = append(lines, fmt.Sprintf("%s %.2f", p.Label, p.Score))
		}
		gocv.PutText(frame, strings.Join(lines, " | "), image.Pt(10, 60),
			gocv.FontHersheyPlain, 1.2, color.RGBA{0, 255, 0, 0}, 2)
	case model.TaskOBB:
		for _, o := range result.Oriented {
			poly := o.Box.ToPolygon()
			for i := range poly {
				p1 := poly[i]
				p2 := poly[(i+1)%len(poly)]
				gocv.Line(frame, image.Pt(int(p1.X), int(p1.Y)), image.Pt(int(p2.X), int(p2.Y)),
					images.ClassColor(o.Class), 2)
			}
			labelAt(frame, o.Label, o.Score, int(poly[0].X), int(poly[0].Y), o.Class)
		}
	case model.TaskPose:
		for _, p := range result.Poses {
			drawBox(frame, p.Detection)
			drawSkeleton(frame, p)
		}
	default:
		for _, d := range result.Boxes {
			drawBox(frame, d)
		}
	}
}

func drawBox(frame *gocv.Mat, d pipeline.Detection) {
	rect := image.Rect(int(d.Box.X1), int(d.Box.Y1), int(d.Box.X2), int(d.Box.Y2))
	gocv.Rectangle(frame, rect, images.ClassColor(d.Class), 2)
	labelAt(frame, d.Label, d.Score, rect.Min.X, rect.Min.Y, d.Class)
}

func drawSkeleton(frame *gocv.Mat, p pipeline.PoseDetection) {
	for _, pair := range pose.CocoSkeleton {
		if pair[0] >= len(p.Keypoints) || pair[1] >= len(p.Keypoints) {
			continue
		}
		a, b := p.Keypoints[pair[0]], p.Keypoints[pair[1]]
		if a.Conf < 0.5 || b.Conf < 0.5 {
			continue
		}
		gocv.Line(frame, image.Pt(int(a.X), int(a.Y)), image.Pt(int(b.X), int(b.Y)),
			color.RGBA{0, 255, 255, 0}, 2)
	}
	for _, kp := range p.Keypoints {
		if kp.Conf < 0.5 {
			continue
		}
		gocv.Circle(frame, image.Pt(int(kp.X), int(kp.Y)), 3, color.RGBA{0, 0, 255, 0}, -1)
	}
}

func labelAt(frame *gocv.Mat, label string, score float32, x, y, class int) {
	text := fmt.Sprintf("%s %.2f", label, score)
	gocv.PutText(frame, text, image.Pt(x, y-4), gocv.FontHersheyPlain, 1.0, images.ClassColor(class), 2)
}
