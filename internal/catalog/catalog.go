// Package catalog holds the static nutritional requirements for the
// supported lettuce varieties across their growth phases.
package catalog

import (
	"github.com/hidroweb/backend/internal/db/models"
)

// Supported lettuce varieties and growth phases, in display order
var (
	Varieties = []string{"Lollo Rossa", "Butterhead", "Romaine", "Iceberg", "Batavia"}
	Phases    = []string{"Germinación", "Crecimiento", "Maduración", "Cosecha"}
)

func rng(min, max float64) *models.Range {
	return &models.Range{Min: min, Max: max}
}

// requirements maps variety then phase to its nutritional requirements
var requirements = map[string]map[string]models.Requirements{
	"Lollo Rossa": {
		"Germinación": {
			Temperature: rng(20, 22),
			PH:          rng(5.6, 6.0),
			WaterLevel:  "El agua debe cubrir el medio de germinación sin saturar la semilla.",
		},
		"Crecimiento": {
			Temperature: rng(20, 22),
			PH:          rng(5.9, 6.1),
			WaterLevel:  "Mantener un flujo continuo que cubra las raíces sin causar asfixia",
		},
		"Maduración": {
			Temperature: rng(18, 22),
			PH:          rng(5.9, 6.2),
			WaterLevel:  "Mantener un flujo continuo, alta oxigenación para mantener el color rojizo brillante.",
		},
		"Cosecha": {
			Temperature: rng(16, 20),
			PH:          rng(5.5, 6.2),
			WaterLevel:  "Mantener un flujo adecuado para garantizar acceso continuo a nutrientes",
		},
	},
	"Butterhead": {
		"Germinación": {
			Temperature: rng(18, 20),
			PH:          rng(5.8, 6.2),
			WaterLevel:  "El agua debe cubrir el medio de germinación sin saturar la semilla.",
		},
		"Crecimiento": {
			Temperature: rng(18, 20),
			PH:          rng(5.8, 6.0),
			WaterLevel:  "Flujo constante que mantenga las raíces húmedas pero bien oxigenadas",
		},
		"Maduración": {
			Temperature: rng(16, 18),
			PH:          rng(5.8, 6.1),
			WaterLevel:  "Mantener un flujo continuo, evita el estrés para lograr hojas suaves y tiernas.",
		},
		"Cosecha": {
			Temperature: rng(16, 20),
			PH:          rng(5.5, 6.2),
			WaterLevel:  "Mantener el flujo adecuado de la solución nutritiva sin encharcamiento.",
		},
	},
	"Romaine": {
		"Germinación": {
			Temperature: rng(20, 22),
			PH:          rng(5.5, 5.9),
			WaterLevel:  "El agua debe cubrir el medio de germinación sin saturar la semilla.",
		},
		"Crecimiento": {
			Temperature: rng(18, 22),
			PH:          rng(5.7, 5.9),
			WaterLevel:  "Flujo constante para evitar la deshidratación de las raíces.",
		},
		"Maduración": {
			Temperature: rng(18, 20),
			PH:          rng(5.7, 6.0),
			WaterLevel:  "Mantener un flujo continuo, favorece raíces aireadas para un crecimiento robusto.",
		},
		"Cosecha": {
			Temperature: rng(16, 20),
			PH:          rng(5.5, 6.2),
			WaterLevel:  "Fluir de manera constante para suministrar nutrientes, sin ahogar las raíces",
		},
	},
	"Iceberg": {
		"Germinación": {
			Temperature: rng(21, 24),
			PH:          rng(5.8, 6.3),
			WaterLevel:  "El agua debe cubrir el medio de germinación sin saturar la semilla.",
		},
		"Crecimiento": {
			Temperature: rng(20, 23),
			PH:          rng(5.9, 6.2),
			WaterLevel:  "Flujo constante y continuo para mantener las raíces oxigenadas y nutridas.",
		},
		"Maduración": {
			Temperature: rng(16, 20),
			PH:          rng(5.9, 6.3),
			WaterLevel:  "Mantener un flujo continuo, requiere humedad constante para formar cabezas compactas.",
		},
		"Cosecha": {
			Temperature: rng(16, 20),
			PH:          rng(5.5, 6.2),
			WaterLevel:  "Flujo adecuado para mantener un buen suministro de nutrientes sin causar encharcamiento.",
		},
	},
	"Batavia": {
		"Germinación": {
			Temperature: rng(19, 22),
			PH:          rng(5.7, 6.1),
			WaterLevel:  "El agua debe cubrir el medio de germinación sin saturar la semilla.",
		},
		"Crecimiento": {
			Temperature: rng(19, 21),
			PH:          rng(5.8, 6.0),
			WaterLevel:  "Mantener un flujo continuo que cubra las raíces sin causar encharcamiento",
		},
		"Maduración": {
			Temperature: rng(18, 20),
			PH:          rng(5.8, 6.1),
			WaterLevel:  "Mantener un flujo continuo, buena circulación y control de oxigenación.",
		},
		"Cosecha": {
			Temperature: rng(16, 20),
			PH:          rng(5.5, 6.2),
			WaterLevel:  "Flujo adecuado para evitar la deshidratación de las raíces y proveer suficiente oxígeno.",
		},
	},
}

// Lookup returns the requirements for a variety and phase. The second
// return value is false when the combination is not in the catalog.
func Lookup(variety, phase string) (models.Requirements, bool) {
	phases, ok := requirements[variety]
	if !ok {
		return models.Requirements{}, false
	}
	req, ok := phases[phase]
	return req, ok
}

// All returns the full catalog keyed by variety then phase
func All() map[string]map[string]models.Requirements {
	out := make(map[string]map[string]models.Requirements, len(requirements))
	for variety, phases := range requirements {
		copied := make(map[string]models.Requirements, len(phases))
		for phase, req := range phases {
			copied[phase] = req
		}
		out[variety] = copied
	}
	return out
}
