package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/fotokruzhok/star-cabinet-bot/internal/progression"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func stars(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

func ErrorDefault() string {
	return "🚫 <b>Ошибка</b>\nПопробуйте ещё раз."
}

func ErrorUnknownCommand() string {
	return "❓ <b>Команда не найдена</b>"
}

func ErrorUnsupportedMessageType() string {
	return "🤖 <b>Я так не умею</b>\nОтправьте команду, фото или ответьте на вопрос квиза."
}

func StartWelcome(firstName string) string {
	name := Escape(firstName)
	if name == "" {
		name = "друг"
	}
	return fmt.Sprintf("👋 <b>Привет, %s!</b>\nЭто клуб, где за активность начисляются звёзды.\n\n"+
		"⭐ Проходите квизы, присылайте фотоработы и растите от Ученика до Наставника.\n"+
		"🏛 Личный кабинет откроется по кнопке ниже.", name)
}

func RegistrationChooseClass() string {
	return "🎭 <b>Выберите класс</b>\nКласс определяет, какие персонажи вам доступны."
}

func RegistrationChooseCharacter(class string) string {
	return fmt.Sprintf("🧙 <b>Класс: %s</b>\nТеперь выберите персонажа — у каждого свой бонус.", Escape(class))
}

func RegistrationDone(out *types.GrantOutcome, character *types.Character) string {
	msg := fmt.Sprintf("🎉 <b>Регистрация завершена!</b>\n"+
		"🎭 Класс: %s\n🧙 Персонаж: %s\n⭐ Начислено звёзд: %s",
		Escape(out.User.Class), Escape(character.Name), stars(out.Entry.StarsAmount))
	if character.Description != "" {
		msg += "\n🎁 Бонус: " + Escape(character.Description)
	}
	return msg
}

func AlreadyRegistered() string {
	return "ℹ️ <b>Вы уже зарегистрированы</b>\nКласс и персонаж выбираются один раз."
}

func InvalidCharacterSelection() string {
	return "🚫 <b>Такого персонажа нет в выбранном классе</b>\nВыберите персонажа из списка."
}

func Profile(user *types.User, character *types.Character) string {
	lines := []string{
		fmt.Sprintf("👤 <b>%s</b>", Escape(user.FirstName)),
		fmt.Sprintf("⭐ Звёзды: <b>%s</b>", stars(user.Stars)),
		fmt.Sprintf("🏅 Уровень: <b>%s</b>", Escape(string(progression.DeriveLevel(user.Stars)))),
	}
	if next, missing, ok := progression.NextLevelAt(user.Stars); ok {
		lines = append(lines, fmt.Sprintf("📈 До уровня «%s»: %s зв.", Escape(string(next)), stars(missing)))
	} else {
		lines = append(lines, "📈 Вы на вершине лестницы!")
	}
	if character != nil {
		lines = append(lines, fmt.Sprintf("🧙 Персонаж: %s (%s)", Escape(character.Name), Escape(user.Class)))
	} else if !user.IsRegistered {
		lines = append(lines, "🎭 Регистрация не завершена — нажмите /start")
	}
	return strings.Join(lines, "\n")
}

func History(entries []types.Activity) string {
	if len(entries) == 0 {
		return "📜 <b>История пуста</b>\nПройдите квиз или пришлите фотоработу."
	}
	lines := []string{"📜 <b>Последние начисления</b>"}
	for _, e := range entries {
		desc := Escape(e.Description)
		if desc == "" {
			desc = string(e.ActivityType)
		}
		lines = append(lines, fmt.Sprintf("%s  +%s ⭐  %s",
			e.CreatedAt.Format("02.01"), stars(e.StarsAmount), desc))
	}
	return strings.Join(lines, "\n")
}

func LevelUp(newLevel string) string {
	return fmt.Sprintf("🎊 <b>Новый уровень: %s!</b>\nТак держать!", Escape(newLevel))
}

func QuizList() string {
	return "🧠 <b>Квизы</b>\nВыберите квиз:"
}

func QuizNoQuizzes() string {
	return "🧠 <b>Квизов пока нет</b>\nЗагляните позже."
}

func QuizQuestion(title string, index, total int, prompt string) string {
	return fmt.Sprintf("🧠 <b>%s</b> — вопрос %d из %d\n\n%s",
		Escape(title), index+1, total, Escape(prompt))
}

func QuizAlreadyRunning() string {
	return "⏳ <b>Квиз уже идёт</b>\nСначала ответьте на текущий вопрос."
}

func QuizResult(title string, result progression.QuizResult, newTotal float64) string {
	msg := fmt.Sprintf("🏁 <b>%s</b>\nВерных ответов: %d из %d",
		Escape(title), result.CorrectCount, result.TotalQuestions)
	if result.StarsEarned > 0 {
		msg += fmt.Sprintf("\n⭐ Заработано звёзд: %s\n💰 Всего звёзд: %s",
			stars(result.StarsEarned), stars(newTotal))
	} else {
		msg += "\n😔 В этот раз без звёзд. Попробуйте ещё!"
	}
	return msg
}

func PhotoWorkAccepted(out *types.GrantOutcome) string {
	return fmt.Sprintf("📸 <b>Фоторабота принята!</b>\n⭐ Начислено: %s\n💰 Всего звёзд: %s",
		stars(out.Entry.StarsAmount), stars(out.User.Stars))
}

func PhotoWorkNeedRegistration() string {
	return "📸 <b>Сначала завершите регистрацию</b>\nНажмите /start и выберите класс."
}

func AdminPostUsage() string {
	return "🛠 <b>Формат:</b> /post &lt;секрет&gt; &lt;ЧЧ:ММ ДД.ММ.ГГГГ|now&gt; &lt;текст&gt;"
}

func AdminDenied() string {
	return "⛔ <b>Доступ запрещён</b>"
}

func AdminPostQueued(publishAt time.Time) string {
	return fmt.Sprintf("📬 <b>Пост в очереди</b>\nПубликация: %s", publishAt.Format("02.01.2006 15:04"))
}

func CabinetButton() string {
	return "🏛 Личный кабинет"
}

func CabinetHint() string {
	return "🏛 <b>Личный кабинет</b>\nОткройте кабинет по кнопке ниже — там профиль, уровень и история звёзд."
}
