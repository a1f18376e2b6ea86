package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	radiopkg "atmosnode/internal/radio"
	"atmosnode/internal/telemetry"
)

// Radio transport selection.
const (
	RadioMQTT     = "mqtt"
	RadioBLE      = "ble"
	RadioLoopback = "loop"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	Radio        string
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	BLEAdapter   string

	I2CBus       string
	FrameVersion uint8
}

// LoadFromEnv reads the host surface from the environment. The node core's
// cadence, addresses, and protocol port stay compiled-in; this only covers
// what differs between hosts. Defaults reproduce the stock device behavior.
func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	radio := strings.TrimSpace(os.Getenv("RADIO"))
	if radio == "" {
		radio = RadioMQTT
	}
	switch radio {
	case RadioMQTT, RadioBLE, RadioLoopback:
	default:
		return Config{}, fmt.Errorf("invalid RADIO %q (allowed: mqtt, ble, loop)", radio)
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "atmosnode"
	}

	bleAdapter := strings.TrimSpace(os.Getenv("BLE_ADAPTER"))
	if bleAdapter == "" {
		bleAdapter = "hci0"
	}

	i2cBus := strings.TrimSpace(os.Getenv("I2C_BUS"))

	versionStr := strings.TrimSpace(os.Getenv("FRAME_VERSION"))
	if versionStr == "" {
		versionStr = strconv.Itoa(telemetry.CurrentVersion)
		if radio == RadioBLE {
			// Legacy advertising cannot carry a version-1 frame.
			versionStr = strconv.Itoa(telemetry.Version0)
		}
	}
	version, err := strconv.ParseUint(versionStr, 10, 8)
	if err != nil || telemetry.EncodedSize(uint8(version)) == 0 {
		return Config{}, fmt.Errorf("invalid FRAME_VERSION %q (allowed: 0, 1)", versionStr)
	}
	if radio == RadioBLE && telemetry.EncodedSize(uint8(version)) > radiopkg.BLEMaxFrameLen {
		return Config{}, fmt.Errorf("FRAME_VERSION %d does not fit BLE advertising; use 0 or the mqtt radio", version)
	}

	return Config{
		AppEnv:       appEnv,
		LogLevel:     level,
		Radio:        radio,
		MQTTBroker:   mqttBroker,
		MQTTPort:     mqttPort,
		MQTTClientID: mqttClientID,
		BLEAdapter:   bleAdapter,
		I2CBus:       i2cBus,
		FrameVersion: uint8(version),
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
