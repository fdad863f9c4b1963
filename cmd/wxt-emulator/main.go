// Command wxt-emulator pretends to be a WXT520 behind a serial-to-TCP bridge.
// It listens for connections and streams wind, PTU and precipitation
// sentences in automatic mode.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/chrissnell/vaisalawx/internal/log"
)

// conditions is one set of simulated observations in SI units.
type conditions struct {
	TempC       float64
	Humidity    float64
	PressureHPa float64
	WindMin     float64
	WindAvg     float64
	WindMax     float64
	WindDir     int
	RainMM      float64
}

func main() {
	var (
		port     = flag.String("port", "4001", "TCP port to listen on")
		interval = flag.Duration("interval", 2*time.Second, "Interval between sentence bursts")
		address  = flag.Int("address", 0, "Transmitter address to put in each sentence")
		debug    = flag.Bool("debug", false, "Log every sentence sent")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return
	}
	defer log.Sync()

	log.Infof("Vaisala WXT520 emulator listening on port %s (address %d), sending every %v", *port, *address, *interval)

	listener, err := net.Listen("tcp", ":"+*port)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Errorf("Failed to accept connection: %v", err)
			continue
		}

		log.Infof("Client connected from %s", conn.RemoteAddr())
		go handleConnection(conn, *address, *interval)
	}
}

func handleConnection(conn net.Conn, address int, interval time.Duration) {
	defer conn.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		c := generateRealisticConditions(time.Now(), rng)
		if err := writeSentences(conn, address, c); err != nil {
			log.Infof("Client %s went away: %v", conn.RemoteAddr(), err)
			return
		}
		log.Debugf("Sent: temp=%.1f°C, humidity=%.1f%%, wind=%.1f m/s @ %d°", c.TempC, c.Humidity, c.WindAvg, c.WindDir)
		<-ticker.C
	}
}

// writeSentences emits the 1, 2 and 3 message blocks for one burst.
func writeSentences(w io.Writer, address int, c conditions) error {
	dirMin := (c.WindDir + 345) % 360
	dirMax := (c.WindDir + 15) % 360

	sentences := []string{
		fmt.Sprintf("%dR1,Dn=%03dD,Dm=%03dD,Dx=%03dD,Sn=%.1fM,Sm=%.1fM,Sx=%.1fM\r\n",
			address, dirMin, c.WindDir, dirMax, c.WindMin, c.WindAvg, c.WindMax),
		fmt.Sprintf("%dR2,Ta=%.1fC,Ua=%.1fP,Pa=%.1fH\r\n",
			address, c.TempC, c.Humidity, c.PressureHPa),
		fmt.Sprintf("%dR3,Rc=%.2fM,Rd=0s,Ri=0.0M,Hc=0.0M,Hd=0s,Hi=0.0M\r\n",
			address, c.RainMM),
	}

	for _, s := range sentences {
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func generateRealisticConditions(now time.Time, rng *rand.Rand) conditions {
	hour := float64(now.Hour())
	dayOfYear := float64(now.YearDay())

	// Seasonal swing around 15°C plus a daily cycle peaking late afternoon.
	seasonal := 15.0 + 11.0*math.Sin(2*math.Pi*(dayOfYear-81)/365)
	temp := seasonal + 8.0*math.Sin(2*math.Pi*(hour-9)/24) + rng.Float64()*2 - 1

	baseHumidity := 60 - (temp-15)*1.2 + 15*math.Sin(2*math.Pi*(hour-21)/24)
	humidity := math.Max(5, math.Min(99, baseHumidity+rng.Float64()*10-5))

	avg := math.Max(0, 2.0+rng.Float64()*4+math.Sin(2*math.Pi*hour/24))
	c := conditions{
		TempC:       temp,
		Humidity:    humidity,
		PressureHPa: 1005 + rng.Float64()*25,
		WindMin:     avg * 0.4,
		WindAvg:     avg,
		WindMax:     avg * 1.8,
		WindDir:     rng.Intn(360),
	}
	if rng.Float64() < 0.02 {
		c.RainMM = rng.Float64() * 0.3
	}
	return c
}
