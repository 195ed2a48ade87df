package dictionary

import (
	"context"
	"fmt"
	"log/slog"
)

// BuiltInSourcePath is the source path recorded for the common-word seed.
const BuiltInSourcePath = "built-in"

// commonWords is the Spanish -> English seed list. Entries are written with the common
// provenance, so automatic translations never replace them.
var commonWords = [][2]string{
	{"hola", "hello"}, {"adios", "goodbye"}, {"gracias", "thank you"}, {"por favor", "please"},
	{"si", "yes"}, {"no", "no"}, {"buenos días", "good morning"}, {"buenas tardes", "good afternoon"},
	{"buenas noches", "good evening"}, {"como estás", "how are you"}, {"bien", "good"}, {"mal", "bad"},
	{"casa", "house"}, {"perro", "dog"}, {"gato", "cat"}, {"hombre", "man"}, {"mujer", "woman"},
	{"niño", "boy"}, {"niña", "girl"}, {"amigo", "friend"}, {"familia", "family"}, {"comida", "food"},
	{"agua", "water"}, {"vino", "wine"}, {"cerveza", "beer"}, {"pan", "bread"}, {"carne", "meat"},
	{"pescado", "fish"}, {"fruta", "fruit"}, {"verdura", "vegetable"}, {"leche", "milk"},
	{"café", "coffee"}, {"té", "tea"}, {"azúcar", "sugar"}, {"sal", "salt"}, {"pimienta", "pepper"},
	{"caliente", "hot"}, {"frío", "cold"}, {"grande", "big"}, {"pequeño", "small"}, {"bueno", "good"},
	{"malo", "bad"}, {"feliz", "happy"}, {"triste", "sad"}, {"rápido", "fast"}, {"lento", "slow"},
	{"nuevo", "new"}, {"viejo", "old"}, {"alto", "tall"}, {"bajo", "short"}, {"gordo", "fat"},
	{"delgado", "thin"}, {"bonito", "pretty"}, {"feo", "ugly"}, {"día", "day"}, {"noche", "night"},
	{"mañana", "tomorrow"}, {"tarde", "afternoon"}, {"semana", "week"}, {"mes", "month"},
	{"año", "year"}, {"hora", "hour"}, {"minuto", "minute"}, {"segundo", "second"}, {"hoy", "today"},
	{"ayer", "yesterday"}, {"tiempo", "time"}, {"padre", "father"}, {"madre", "mother"},
	{"hermano", "brother"}, {"hermana", "sister"}, {"hijo", "son"}, {"hija", "daughter"},
	{"abuelo", "grandfather"}, {"abuela", "grandmother"}, {"tío", "uncle"}, {"tía", "aunt"},
	{"primo", "cousin"}, {"esposo", "husband"}, {"esposa", "wife"}, {"amor", "love"}, {"odio", "hate"},
	{"vida", "life"}, {"muerte", "death"}, {"trabajo", "work"}, {"escuela", "school"},
	{"universidad", "university"}, {"hospital", "hospital"}, {"tienda", "store"},
	{"restaurante", "restaurant"}, {"banco", "bank"}, {"iglesia", "church"}, {"calle", "street"},
	{"ciudad", "city"}, {"país", "country"}, {"mundo", "world"}, {"papa", "potato"},
	{"francia", "France"}, {"ucrania", "Ukraine"}, {"libro", "book"}, {"de", "of"}, {"la", "the"},
	{"el", "the"}, {"y", "and"}, {"a", "to"}, {"en", "in"}, {"con", "with"}, {"por", "for"},
	{"para", "for"}, {"su", "his/her"}, {"mi", "my"}, {"tu", "your"}, {"líder", "leader"},
	{"uno", "one"}, {"dos", "two"}, {"tres", "three"}, {"cuatro", "four"}, {"cinco", "five"},
	{"seis", "six"}, {"siete", "seven"}, {"ocho", "eight"}, {"nueve", "nine"}, {"diez", "ten"},
}

// CommonWordCount returns the size of the built-in seed list.
func CommonWordCount() int {
	return len(commonWords)
}

// SeedCommonWords writes the built-in word list and records it as a source.
// It returns how many words were new to the store. Manual entries are left untouched.
func SeedCommonWords(ctx context.Context, store Store) (int, error) {
	before, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}

	for _, pair := range commonWords {
		if _, err := store.Put(ctx, Entry{
			Word:        pair[0],
			Translation: pair[1],
			Provenance:  ProvenanceCommon,
		}); err != nil {
			return 0, fmt.Errorf("seed %q: %w", pair[0], err)
		}
	}

	after, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	added := after - before
	if added > 0 {
		if err := store.AddSource(ctx, Source{
			Path:   BuiltInSourcePath,
			Format: string(ProvenanceCommon),
			Words:  added,
		}); err != nil {
			return added, err
		}
	}

	slog.Default().Info("Seeded common words", "added", added, "total", after)
	return added, nil
}
