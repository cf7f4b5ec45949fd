package dashboard

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// DefaultTitle is the dashboard heading.
const DefaultTitle = "Análisis de Sentimiento de Tweets de Aerolíneas en Estados Unidos"

// Documentation is the project description shown in the collapsible panel.
const Documentation = `### Origen del dataset
El dataset proviene de Kaggle y reúne más de 87,000 tweets sobre aerolíneas
de Estados Unidos. Cada registro trae el texto, la fecha de publicación y un
identificador único.

### Preprocesamiento
La limpieza se hizo con **NLTK**:

- Conversión a minúsculas.
- Eliminación de puntuación, menciones, hashtags, URLs y caracteres no alfabéticos.
- Tokenización con ` + "`nltk.word_tokenize`" + `.
- Eliminación de stopwords en inglés.
- Lematización con ` + "`WordNetLemmatizer`" + ` (por ejemplo, *running* → *run*).

### Modelo de sentimiento
Se usó **VADER** (Valence Aware Dictionary and sEntiment Reasoner), pensado
para textos cortos e informales como los de redes sociales. Cada tweet se
etiquetó según su puntuación ` + "`compound`" + `:

- ` + "`compound ≥ 0.05`" + `: positivo
- ` + "`compound ≤ -0.05`" + `: negativo
- En otro caso: neutral

### Resultados presentados
- **Estadísticas agregadas:** cantidad y porcentaje de tweets por sentimiento.
- **Visualizaciones:** distribución de sentimientos, serie temporal por fecha
  y nubes de palabras por sentimiento.
- **Exploración de tweets:** filtro por sentimiento y rango de fechas.

### Limitaciones
- La ambigüedad, el sarcasmo y los errores gramaticales afectan los resultados.
- Solo se analiza el texto del tweet, sin imágenes ni enlaces.
- VADER no es multilingüe: solo se analizaron tweets en inglés.

### 🎯 Objetivo
Reforzar habilidades de limpieza y análisis de texto, y presentar los
resultados de forma dinámica en una interfaz web interactiva.
`

var docsPolicy = bluemonday.UGCPolicy()

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(md string) template.HTML {
	unsafe := blackfriday.Run([]byte(md))
	return template.HTML(docsPolicy.SanitizeBytes(unsafe))
}
