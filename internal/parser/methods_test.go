package parser

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/conorfennell/studyparse/internal/domain"
)

func TestParseCornell(t *testing.T) {
	input := `📝 **NOTAS CORNELL: La célula**

**PREGUNTAS CLAVE:**
- ¿Qué es una célula?
- ¿Qué partes tiene?

**NOTAS:**
- Unidad básica de la vida. 🔬
- Tiene membrana, citoplasma y núcleo.

**RESUMEN:**
La célula es la unidad básica
de todos los seres vivos.`

	notes := ParseCornell(input)
	if len(notes) != 1 {
		t.Fatalf("Expected 1 note, but got %d", len(notes))
	}
	expected := domain.CornellNote{
		Cues:    []string{"¿Qué es una célula?", "¿Qué partes tiene?"},
		Notes:   []string{"Unidad básica de la vida.", "Tiene membrana, citoplasma y núcleo."},
		Summary: "La célula es la unidad básica de todos los seres vivos.",
	}
	if !reflect.DeepEqual(notes[0], expected) {
		t.Errorf("Expected %+v, but got %+v", expected, notes[0])
	}

	if got := ParseCornell("**RESUMEN:** Solo un resumen."); len(got) != 0 {
		t.Errorf("Expected a note with no cues or notes to be dropped, got %+v", got)
	}
}

func TestParseFeynman(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []domain.FeynmanStep
	}{
		{
			name: "Numbered steps",
			input: `🧠 **TÉCNICA FEYNMAN: La gravedad**

**PASO 1: Explica el concepto**
La gravedad es la fuerza que atrae los objetos.

**PASO 2: Identifica lagunas**
¿Por qué la Luna no cae?

**PASO 3: Simplifica**
Es como una pelota atada a una cuerda.

**PASO 4: Revisa**
- Repasa tu explicación.`,
			expected: []domain.FeynmanStep{
				{StepNumber: 1, Title: "Explica el concepto", Content: "La gravedad es la fuerza que atrae los objetos.", Icon: domain.IconTeach},
				{StepNumber: 2, Title: "Identifica lagunas", Content: "¿Por qué la Luna no cae?", Icon: domain.IconThink},
				{StepNumber: 3, Title: "Simplifica", Content: "Es como una pelota atada a una cuerda.", Icon: domain.IconSimplify},
				{StepNumber: 4, Title: "Revisa", Content: "Repasa tu explicación.", Icon: domain.IconReview},
			},
		},
		{
			name:  "Content spanning several paragraphs",
			input: "**PASO 1: Explica el concepto**\nLa fotosíntesis convierte luz en energía.\n\nOcurre en los cloroplastos de las hojas.\n\n**PASO 2: Identifica lagunas**\n¿De dónde sale el oxígeno?",
			expected: []domain.FeynmanStep{
				{StepNumber: 1, Title: "Explica el concepto", Content: "La fotosíntesis convierte luz en energía. Ocurre en los cloroplastos de las hojas.", Icon: domain.IconTeach},
				{StepNumber: 2, Title: "Identifica lagunas", Content: "¿De dónde sale el oxígeno?", Icon: domain.IconThink},
			},
		},
		{
			name:  "Separator ends the last step",
			input: "**PASO 1: Explica**\nUna planta come luz.\n\nY bebe agua.\n\n---\n\n¿Quieres un quiz sobre esto?",
			expected: []domain.FeynmanStep{
				{StepNumber: 1, Title: "Explica", Content: "Una planta come luz. Y bebe agua.", Icon: domain.IconTeach},
			},
		},
		{
			name:  "Keycap markers as step numbers",
			input: "1️⃣ **Cuéntalo a un niño**\nUna planta come luz.\n2️⃣ **Busca lo que falla**\nNo sé qué es la clorofila.",
			expected: []domain.FeynmanStep{
				{StepNumber: 1, Title: "Cuéntalo a un niño", Content: "Una planta come luz.", Icon: domain.IconTeach},
				{StepNumber: 2, Title: "Busca lo que falla", Content: "No sé qué es la clorofila.", Icon: domain.IconThink},
			},
		},
		{
			name:  "Repeated step number is dropped",
			input: "PASO 1: A\nuno\nPASO 1: B\ndos\nPASO 2: C\ntres",
			expected: []domain.FeynmanStep{
				{StepNumber: 1, Title: "A", Content: "uno", Icon: domain.IconTeach},
				{StepNumber: 2, Title: "C", Content: "tres", Icon: domain.IconThink},
			},
		},
		{
			name:  "Step without content is dropped",
			input: "PASO 1: Explica\nPASO 2: Simplifica\nComo una receta.",
			expected: []domain.FeynmanStep{
				{StepNumber: 2, Title: "Simplifica", Content: "Como una receta.", Icon: domain.IconSimplify},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			steps := ParseFeynman(tc.input)
			if !reflect.DeepEqual(steps, tc.expected) {
				t.Errorf("Expected %+v, but got %+v", tc.expected, steps)
			}
		})
	}
}

const feynmanText = `🧠 **TÉCNICA FEYNMAN: La fotosíntesis**

**PASO 1: Explícalo con palabras simples**
Las plantas fabrican su comida con luz.

Lo hacen en las hojas.

**PASO 2: Identifica lagunas**
¿Qué papel tiene el agua?

**PASO 3: Simplifica**
Es como cocinar con un panel solar.

**PASO 4: Revisa**
Repasa cada paso en voz alta.`

func TestParseFeynmanGrowingPrefix(t *testing.T) {
	full := ParseFeynman(feynmanText)
	if len(full) != 4 {
		t.Fatalf("Expected 4 steps, but got %d", len(full))
	}

	for n := 1; n < len(full); n++ {
		cut := strings.Index(feynmanText, "**PASO "+strconv.Itoa(n+1))
		prefix := ParseFeynman(feynmanText[:cut])
		if !reflect.DeepEqual(prefix, full[:n]) {
			t.Errorf("prefix ending before step %d: expected %+v, but got %+v", n+1, full[:n], prefix)
		}
	}
}

func TestParseSpacedRepetitionGrowingPrefix(t *testing.T) {
	input := `📅 **DÍA 1 - Lunes**
- Leer el tema
**Objetivo:** Primera lectura

📅 **DÍA 3 - Miércoles**
- Hacer un esquema

📅 **DÍA 2 - Martes**
- Fuera de orden

📅 **DÍA 7 - Domingo**
- Autoevaluación`

	full := ParseSpacedRepetition(input)
	if len(full) != 3 {
		t.Fatalf("Expected 3 sessions, but got %d", len(full))
	}

	testCases := []struct {
		before   string
		expected int
	}{
		{"📅 **DÍA 3", 1},
		{"📅 **DÍA 2", 2},
		{"📅 **DÍA 7", 2},
	}
	for _, tc := range testCases {
		prefix := ParseSpacedRepetition(input[:strings.Index(input, tc.before)])
		if !reflect.DeepEqual(prefix, full[:tc.expected]) {
			t.Errorf("prefix ending before %q: expected %+v, but got %+v", tc.before, full[:tc.expected], prefix)
		}
	}
}

func TestParseSpacedRepetition(t *testing.T) {
	input := `📅 **DÍA 1 - Lunes 3 de marzo**
- Repasar la definición de fotosíntesis
- Leer apuntes del capítulo 2
**Objetivo:** Entender los conceptos básicos

📅 **DÍA 3 - Miércoles 5 de marzo**
- Hacer tarjetas de memoria
**Objetivo:** Memorizar las fases

**DÍA 2 - Martes**
- Esto va hacia atrás

**DÍA 7 - Domingo 9 de marzo**
**Temas:** Autoevaluación completa`

	sessions := ParseSpacedRepetition(input)
	expected := []domain.ReviewSession{
		{Day: 1, DateLabel: "Lunes 3 de marzo", Topics: []string{"Repasar la definición de fotosíntesis", "Leer apuntes del capítulo 2"}, Objective: "Entender los conceptos básicos"},
		{Day: 3, DateLabel: "Miércoles 5 de marzo", Topics: []string{"Hacer tarjetas de memoria"}, Objective: "Memorizar las fases"},
		{Day: 7, DateLabel: "Domingo 9 de marzo", Topics: []string{"Autoevaluación completa"}},
	}
	if !reflect.DeepEqual(sessions, expected) {
		t.Errorf("Expected %+v, but got %+v", expected, sessions)
	}
	for _, s := range sessions {
		if s.Completed {
			t.Errorf("day %d: Expected sessions to start not completed", s.Day)
		}
	}
}

func TestParseActiveRecall(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []domain.RecallQuestion
	}{
		{
			name: "Numbered questions with hints",
			input: `🧠 **RECUERDO ACTIVO: Fotosíntesis**

**PREGUNTA 1:** ¿Qué necesita una planta para hacer fotosíntesis?
**RESPUESTA:** Luz, agua y dióxido de carbono.
**PISTA:** Piensa en lo que toma del ambiente.

**PREGUNTA 2:** ¿Dónde ocurre?
**RESPUESTA:** En los cloroplastos.`,
			expected: []domain.RecallQuestion{
				{Question: "¿Qué necesita una planta para hacer fotosíntesis?", Answer: "Luz, agua y dióxido de carbono.", Hint: "Piensa en lo que toma del ambiente."},
				{Question: "¿Dónde ocurre?", Answer: "En los cloroplastos."},
			},
		},
		{
			name:  "Unnumbered questions",
			input: "Pregunta: ¿Uno?\nRespuesta: 1\nPregunta: ¿Dos?\nRespuesta esperada: 2",
			expected: []domain.RecallQuestion{
				{Question: "¿Uno?", Answer: "1"},
				{Question: "¿Dos?", Answer: "2"},
			},
		},
		{
			name:     "Question without answer",
			input:    "PREGUNTA 1: ¿Sin respuesta?\nPISTA: nada",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseActiveRecall(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %+v, but got %+v", tc.expected, got)
			}
		})
	}
}

func TestParsePomodoro(t *testing.T) {
	input := `⏰ **POMODORO 1 (25 min): Fotosíntesis básica**
**Actividades:**
- Leer el capítulo 3
- Subrayar ideas clave
**Descanso (5 min):** Estira las piernas

⏰ **POMODORO 2 (25 min): Fase oscura**
- Resumir el ciclo de Calvin
☕ **Descanso largo:** 15 minutos

⏰ **POMODORO 3:** Sin actividades`

	sessions := ParsePomodoro(input)
	expected := []domain.PomodoroSession{
		{SessionNumber: 1, Focus: "Fotosíntesis básica", Activities: []string{"Leer el capítulo 3", "Subrayar ideas clave"}, BreakDescription: "Estira las piernas"},
		{SessionNumber: 2, Focus: "Fase oscura", Activities: []string{"Resumir el ciclo de Calvin"}, BreakDescription: "15 minutos"},
	}
	if !reflect.DeepEqual(sessions, expected) {
		t.Errorf("Expected %+v, but got %+v", expected, sessions)
	}
}

func TestParseSummary(t *testing.T) {
	input := `✨ **RESUMEN FÁCIL: La fotosíntesis**

**Idea principal:** Las plantas fabrican su alimento con luz. 🌱

**Puntos clave:**
- Necesitan luz solar
- Liberan oxígeno

**Ejemplo:** Como una cocina solar.`

	summaries := ParseSummary(input)
	expected := []domain.Summary{{
		MainIdea:  "Las plantas fabrican su alimento con luz.",
		KeyPoints: []string{"Necesitan luz solar", "Liberan oxígeno"},
		Example:   "Como una cocina solar.",
	}}
	if !reflect.DeepEqual(summaries, expected) {
		t.Errorf("Expected %+v, but got %+v", expected, summaries)
	}
}

func TestParseSummaryParagraphs(t *testing.T) {
	input := `✨ **RESUMEN FÁCIL**
**Idea principal:** Las plantas fabrican su alimento.

Para eso usan la luz del sol.

**Ejemplo:** Como una cocina solar.

Pero sin enchufe.

---

¿Te preparo unas tarjetas?`

	summaries := ParseSummary(input)
	expected := []domain.Summary{{
		MainIdea: "Las plantas fabrican su alimento. Para eso usan la luz del sol.",
		Example:  "Como una cocina solar. Pero sin enchufe.",
	}}
	if !reflect.DeepEqual(summaries, expected) {
		t.Errorf("Expected %+v, but got %+v", expected, summaries)
	}
}

func TestParsersIgnorePlainProse(t *testing.T) {
	prose := `La fotosíntesis es el proceso mediante el cual las plantas, algas y
algunas bacterias convierten la energía de la luz en energía química.

Este proceso es fundamental para la vida en la Tierra. ¿Tienes más preguntas?`

	if got := ParseFlashcards(prose); len(got) != 0 {
		t.Errorf("flashcards: %+v", got)
	}
	if got := ParseQuiz(prose); len(got) != 0 {
		t.Errorf("quiz: %+v", got)
	}
	if got := ParseCornell(prose); len(got) != 0 {
		t.Errorf("cornell: %+v", got)
	}
	if got := ParseFeynman(prose); len(got) != 0 {
		t.Errorf("feynman: %+v", got)
	}
	if got := ParseMindMap(prose, "Fotosíntesis"); len(got) != 0 {
		t.Errorf("mindmap: %+v", got)
	}
	if got := ParseSpacedRepetition(prose); len(got) != 0 {
		t.Errorf("spaced repetition: %+v", got)
	}
	if got := ParseActiveRecall(prose); len(got) != 0 {
		t.Errorf("active recall: %+v", got)
	}
	if got := ParsePomodoro(prose); len(got) != 0 {
		t.Errorf("pomodoro: %+v", got)
	}
	if got := ParseSummary(prose); len(got) != 0 {
		t.Errorf("summary: %+v", got)
	}
}
