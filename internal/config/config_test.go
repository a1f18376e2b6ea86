package config

import (
	"log/slog"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "RADIO",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID",
		"BLE_ADAPTER", "I2C_BUS", "FRAME_VERSION",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.Radio != RadioMQTT {
		t.Errorf("Radio = %q, want %q", got.Radio, RadioMQTT)
	}
	if got.MQTTBroker != "localhost" || got.MQTTPort != 1883 {
		t.Errorf("MQTT = %s:%d, want localhost:1883", got.MQTTBroker, got.MQTTPort)
	}
	if got.FrameVersion != 1 {
		t.Errorf("FrameVersion = %d, want 1", got.FrameVersion)
	}
}

func TestLoadFromEnv_BLEDefaultsToVersion0(t *testing.T) {
	clearEnv(t)
	t.Setenv("RADIO", "ble")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.FrameVersion != 0 {
		t.Errorf("FrameVersion = %d under BLE, want 0", got.FrameVersion)
	}
}

func TestLoadFromEnv_BLERejectsVersion1(t *testing.T) {
	clearEnv(t)
	t.Setenv("RADIO", "ble")
	t.Setenv("FRAME_VERSION", "1")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("LoadFromEnv() error = nil, want oversize-frame error")
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad app env", key: "APP_ENV", value: "staging"},
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "bad radio", key: "RADIO", value: "carrier-pigeon"},
		{name: "bad mqtt port", key: "MQTT_PORT", value: "not-a-port"},
		{name: "bad frame version", key: "FRAME_VERSION", value: "7"},
		{name: "negative frame version", key: "FRAME_VERSION", value: "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("LoadFromEnv() with %s=%q: error = nil, want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_TrimsWhitespace(t *testing.T) {
	clearEnv(t)
	t.Setenv("MQTT_BROKER", "  broker.local  ")
	t.Setenv("APP_ENV", "\nprod\t")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.MQTTBroker != "broker.local" {
		t.Errorf("MQTTBroker = %q, want %q", got.MQTTBroker, "broker.local")
	}
	if got.AppEnv != "prod" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "prod")
	}
}
