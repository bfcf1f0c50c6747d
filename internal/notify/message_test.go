package notify

import (
	"strings"
	"testing"

	"github.com/hidroweb/backend/internal/alert"
	"github.com/hidroweb/backend/internal/db/models"
	"github.com/stretchr/testify/assert"
)

func testCrop() *models.Crop {
	return &models.Crop{
		CropID:    "crop-1",
		GrowerUID: "uid-1",
		Species:   "Lechuga",
		Variety:   "Lollo Rossa",
		Phase:     "Crecimiento",
		Requirements: models.Requirements{
			Temperature: &models.Range{Min: 18, Max: 24},
			PH:          &models.Range{Min: 5.5, Max: 6.5},
			WaterLevel:  "Mantener un flujo continuo",
		},
	}
}

func TestFormatAlertMessage(t *testing.T) {
	t.Run("Should include a paragraph per breached dimension", func(t *testing.T) {
		msg := FormatAlertMessage(testCrop(), alert.BreachResult{
			TemperatureBreached: true,
			PHBreached:          true,
			WaterLevelBreached:  true,
			Temperature:         27,
			PH:                  6.8,
			WaterLevel:          0,
		})

		assert.True(t, strings.HasPrefix(msg, "🚨 *¡Alerta en tu cultivo Lechuga Lollo Rossa!*"))
		assert.Contains(t, msg, "🔥 *Temperatura fuera de rango*")
		assert.Contains(t, msg, "Rango permitido: 18.00 °C - 24.00 °C")
		assert.Contains(t, msg, "Valor actual: 27.00 °C")
		assert.Contains(t, msg, "⚗️ *pH fuera de rango*")
		assert.Contains(t, msg, "Rango permitido: 5.50 - 6.50")
		assert.Contains(t, msg, "Valor actual: 6.80")
		assert.Contains(t, msg, "💧 *Nivel de agua crítico*")
		assert.Contains(t, msg, "No hay agua disponible en el sistema.")
	})

	t.Run("Should omit dimensions that did not breach", func(t *testing.T) {
		msg := FormatAlertMessage(testCrop(), alert.BreachResult{
			TemperatureBreached: true,
			Temperature:         27,
			PH:                  6.0,
			WaterLevel:          1,
		})

		assert.Contains(t, msg, "🔥")
		assert.NotContains(t, msg, "⚗️")
		assert.NotContains(t, msg, "💧")
	})

	t.Run("Should render values with two decimals", func(t *testing.T) {
		msg := FormatAlertMessage(testCrop(), alert.BreachResult{
			PHBreached: true,
			PH:         6.825,
		})

		assert.Contains(t, msg, "Valor actual: 6.83")
	})

	t.Run("Should skip the range line when no range is configured", func(t *testing.T) {
		crop := testCrop()
		crop.Requirements.Temperature = nil

		msg := FormatAlertMessage(crop, alert.BreachResult{
			TemperatureBreached: true,
			Temperature:         27,
		})

		assert.NotContains(t, msg, "Rango permitido")
		assert.Contains(t, msg, "Valor actual: 27.00 °C")
	})
}

func TestFormatResolutionMessage(t *testing.T) {
	msg := FormatResolutionMessage(testCrop())

	assert.Contains(t, msg, "✅ *Alerta resuelta*")
	assert.Contains(t, msg, "Lechuga Lollo Rossa")
}

func TestParseStartCommand(t *testing.T) {
	uid, ok := parseStartCommand("/start uid-123")
	assert.True(t, ok)
	assert.Equal(t, "uid-123", uid)

	_, ok = parseStartCommand("/start")
	assert.False(t, ok)

	_, ok = parseStartCommand("hola")
	assert.False(t, ok)

	_, ok = parseStartCommand("/start uid-123 extra")
	assert.False(t, ok)
}
