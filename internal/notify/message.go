package notify

import (
	"fmt"
	"strings"

	"github.com/hidroweb/backend/internal/alert"
	"github.com/hidroweb/backend/internal/db/models"
)

// FormatAlertMessage builds the Telegram alert text for a crop. Only
// the dimensions that actually breached get a paragraph.
func FormatAlertMessage(crop *models.Crop, result alert.BreachResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚨 *¡Alerta en tu cultivo %s!*\n", crop.DisplayName())

	if result.TemperatureBreached {
		b.WriteString("\n🔥 *Temperatura fuera de rango*\n")
		if crop.Requirements.Temperature != nil {
			fmt.Fprintf(&b, "Rango permitido: %s °C - %s °C\n",
				models.FormatSensorValue(crop.Requirements.Temperature.Min),
				models.FormatSensorValue(crop.Requirements.Temperature.Max))
		}
		fmt.Fprintf(&b, "Valor actual: %s °C\n", models.FormatSensorValue(result.Temperature))
	}

	if result.PHBreached {
		b.WriteString("\n⚗️ *pH fuera de rango*\n")
		if crop.Requirements.PH != nil {
			fmt.Fprintf(&b, "Rango permitido: %s - %s\n",
				models.FormatSensorValue(crop.Requirements.PH.Min),
				models.FormatSensorValue(crop.Requirements.PH.Max))
		}
		fmt.Fprintf(&b, "Valor actual: %s\n", models.FormatSensorValue(result.PH))
	}

	if result.WaterLevelBreached {
		b.WriteString("\n💧 *Nivel de agua crítico*\n")
		b.WriteString("No hay agua disponible en el sistema.\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatResolutionMessage builds the text announcing that a crop's
// readings are back inside their permitted ranges.
func FormatResolutionMessage(crop *models.Crop) string {
	return fmt.Sprintf("✅ *Alerta resuelta*\nTu cultivo %s volvió a valores normales.", crop.DisplayName())
}
