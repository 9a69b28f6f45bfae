// Package telemetry implements the websocket session registry and the binary
// frame protocol shared by the pump controller and its remote clients.
package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"controlling_pump/internal/models"
)

// DataType tags the first word of every binary frame.
type DataType uint32

const (
	DataNone DataType = iota
	DataPumpState
	DataWaterTemp
	DataAmbientTemp
	DataSettingMinAmbient
	DataSettingAmbHysteresis
	DataSettingMinWater
	DataSettingWaterHysteresis
	DataNewSettingData
)

const (
	wordSize          = 4
	FrameSize         = 2 * wordSize
	SettingsFrameSize = 5 * wordSize
)

var (
	ErrFrameLength = errors.New("telemetry: unexpected frame length")
	ErrFrameTag    = errors.New("telemetry: unexpected frame tag")
)

var frameOrder = binary.LittleEndian

func (d DataType) String() string {
	switch d {
	case DataNone:
		return "none"
	case DataPumpState:
		return "pump_state"
	case DataWaterTemp:
		return "water_temp"
	case DataAmbientTemp:
		return "ambient_temp"
	case DataSettingMinAmbient:
		return "setting_min_ambient"
	case DataSettingAmbHysteresis:
		return "setting_amb_hysteresis"
	case DataSettingMinWater:
		return "setting_min_water"
	case DataSettingWaterHysteresis:
		return "setting_water_hysteresis"
	case DataNewSettingData:
		return "new_setting_data"
	default:
		return fmt.Sprintf("data_type(%d)", uint32(d))
	}
}

// IsFloat reports whether the value word of dt carries float32 bits.
func (d DataType) IsFloat() bool {
	return d != DataPumpState && d != DataNone
}

// EncodeFrame builds an 8 byte [dataType][value] frame.
func EncodeFrame(dt DataType, value uint32) []byte {
	buf := make([]byte, FrameSize)
	frameOrder.PutUint32(buf[0:], uint32(dt))
	frameOrder.PutUint32(buf[wordSize:], value)
	return buf
}

// EncodeFloatBits returns the value word carrying v.
func EncodeFloatBits(v float32) uint32 { return math.Float32bits(v) }

// EncodeFloatFrame builds a frame whose value is the raw bits of v.
func EncodeFloatFrame(dt DataType, v float32) []byte {
	return EncodeFrame(dt, EncodeFloatBits(v))
}

// DecodeFrame splits an 8 byte frame into its tag and value word.
func DecodeFrame(b []byte) (DataType, uint32, error) {
	if len(b) != FrameSize {
		return DataNone, 0, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(b), FrameSize)
	}
	return DataType(frameOrder.Uint32(b[0:])), frameOrder.Uint32(b[wordSize:]), nil
}

// EncodeSettingsFrame builds the inbound settings update frame.
func EncodeSettingsFrame(s models.Settings) []byte {
	buf := make([]byte, SettingsFrameSize)
	frameOrder.PutUint32(buf[0:], uint32(DataNewSettingData))
	frameOrder.PutUint32(buf[4:], math.Float32bits(s.MinAmbient))
	frameOrder.PutUint32(buf[8:], math.Float32bits(s.MinWater))
	frameOrder.PutUint32(buf[12:], math.Float32bits(s.AmbientHysteresis))
	frameOrder.PutUint32(buf[16:], math.Float32bits(s.WaterHysteresis))
	return buf
}

// DecodeSettingsFrame parses a settings update. Anything but exactly five
// words led by DataNewSettingData is rejected.
func DecodeSettingsFrame(b []byte) (models.Settings, error) {
	if len(b) != SettingsFrameSize {
		return models.Settings{}, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(b), SettingsFrameSize)
	}
	if tag := DataType(frameOrder.Uint32(b[0:])); tag != DataNewSettingData {
		return models.Settings{}, fmt.Errorf("%w: %s", ErrFrameTag, tag)
	}
	word := func(i int) float32 { return math.Float32frombits(frameOrder.Uint32(b[i*wordSize:])) }
	return models.Settings{
		MinAmbient:        word(1),
		MinWater:          word(2),
		AmbientHysteresis: word(3),
		WaterHysteresis:   word(4),
	}, nil
}

// settingsFrames returns the four setting frames in replay order.
func settingsFrames(s models.Settings) [][]byte {
	return [][]byte{
		EncodeFloatFrame(DataSettingMinAmbient, s.MinAmbient),
		EncodeFloatFrame(DataSettingAmbHysteresis, s.AmbientHysteresis),
		EncodeFloatFrame(DataSettingMinWater, s.MinWater),
		EncodeFloatFrame(DataSettingWaterHysteresis, s.WaterHysteresis),
	}
}
