package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
)

// reading mirrors the inbox submission payload
type reading struct {
	SensorID    string  `json:"sensorId"`
	GrowerUID   string  `json:"userId"`
	CropID      string  `json:"cultivoId"`
	DateTime    string  `json:"dateTime"`
	PH          float64 `json:"pH"`
	Temperature float64 `json:"temperature"`
	WaterLevel  float64 `json:"waterLevel"`
}

func main() {
	serverURL := flag.String("server", "http://localhost:5000", "Backend base URL")
	token := flag.String("token", "", "Bearer token for the readings endpoint")
	sensorID := flag.String("sensor", "sensor123", "Sensor id to report")
	growerUID := flag.String("uid", "", "Grower uid that owns the crop")
	cropID := flag.String("crop", "", "Crop id to report readings for")
	interval := flag.Duration("interval", 5*time.Second, "Time between readings")
	count := flag.Int("count", 0, "Number of readings to send, 0 for unlimited")
	dry := flag.Bool("dry", false, "Simulate a dry tank (water level 0)")
	flag.Parse()

	if *growerUID == "" || *cropID == "" {
		fmt.Println("Both -uid and -crop are required")
		flag.Usage()
		os.Exit(1)
	}

	client := resty.New().
		SetBaseURL(*serverURL).
		SetTimeout(10 * time.Second)
	if *token != "" {
		client.SetAuthToken(*token)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Sending readings for crop %s every %s\n", *cropID, *interval)

	sent := 0
	for {
		payload := generateReading(*sensorID, *growerUID, *cropID, *dry)

		resp, err := client.R().
			SetBody(payload).
			Post("/api/v1/readings")
		if err != nil {
			fmt.Printf("Failed to send reading: %v\n", err)
		} else {
			fmt.Printf("Sent reading (status %d): temp=%.2f pH=%.2f water=%.0f\n",
				resp.StatusCode(), payload.Temperature, payload.PH, payload.WaterLevel)
		}

		sent++
		if *count > 0 && sent >= *count {
			fmt.Printf("Sent %d readings, done\n", sent)
			return
		}

		select {
		case <-signals:
			fmt.Println("Interrupted")
			return
		case <-ticker.C:
		}
	}
}

// generateReading produces a healthy in-range reading: temperature
// between 20 and 22, pH between 5.9 and 6.1, tank full unless -dry
func generateReading(sensorID, growerUID, cropID string, dry bool) reading {
	water := 1.0
	if dry {
		water = 0
	}

	return reading{
		SensorID:    sensorID,
		GrowerUID:   growerUID,
		CropID:      cropID,
		DateTime:    time.Now().Format("2006-01-02 15:04:05"),
		PH:          round2(rand.Float64()*0.2 + 5.9),
		Temperature: round2(rand.Float64()*2 + 20),
		WaterLevel:  water,
	}
}

func round2(v float64) float64 {
	return float64(int(v*100)) / 100
}
