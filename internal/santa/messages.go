package santa

import (
	"strings"
	"text/template"
)

// Menu button labels. Inbound text is matched against them exactly.
const (
	ButtonRegister      = "👋 Регистрация"
	ButtonAssignment    = "📨 Мое задание"
	ButtonHelp          = "🆘 Помощь"
	ButtonTrackingState = "🎫 Как там моя посылка?"
	ButtonSubmitTrack   = "📦 Заявить трекер"
	ButtonBack          = "⏮️ Вернуться в главное меню"
)

// Keyboard selects the reply keyboard attached to an outbound message.
type Keyboard int

const (
	// KeyboardNone leaves the keyboard the user currently sees.
	KeyboardNone Keyboard = iota
	// KeyboardMain shows the main menu.
	KeyboardMain
	// KeyboardBack shows a single "back to menu" button.
	KeyboardBack
)

func (k Keyboard) String() string {
	switch k {
	case KeyboardMain:
		return "main"
	case KeyboardBack:
		return "back"
	default:
		return "none"
	}
}

// Rows returns the button labels of the keyboard, row by row.
func (k Keyboard) Rows() [][]string {
	switch k {
	case KeyboardMain:
		return [][]string{
			{ButtonRegister, ButtonAssignment, ButtonHelp},
			{ButtonTrackingState, ButtonSubmitTrack},
		}
	case KeyboardBack:
		return [][]string{{ButtonBack}}
	default:
		return nil
	}
}

const (
	msgStart = "Привет! 🎄 Это бот новогоднего обмена подарками.\n\n" +
		"Нажми «" + ButtonRegister + "», чтобы указать свою страницу ВКонтакте, " +
		"и бот найдёт, кому ты отправляешь подарок."
	msgWelcomeBack  = "С возвращением! Выбери действие в меню 👇"
	msgRegistration = "Отправь ссылку на свою страницу ВКонтакте или короткое имя, например vk.com/durov или id1."
	msgRegistered   = "Готово! 🎉 Регистрация завершена. Теперь можно посмотреть своё задание."
	msgRegFailed    = "Не похоже на страницу ВКонтакте 🤔 Попробуй ещё раз или вернись в меню."
	msgRegAlready   = "Ты уже зарегистрирован(а). Если нужно изменить данные, напиши организаторам."
	msgRegEmpty     = "Сначала пройди регистрацию: кнопка «" + ButtonRegister + "»."
	msgTrackPrompt  = "Отправь трек-номер посылки для своего получателя."
	msgTrackSaved   = "Трек-номер сохранён 📦 Получатель сможет его увидеть."
	msgTrackFailed  = "Трек-номер не распознан. Подходят коды вида RA123456789CN, 14 или 10 цифр."
	msgTrackAlready = "Трек-номер уже указан. Если он изменился, напиши организаторам."
	msgTrackEmpty   = "Твой Санта ещё не указал трек-номер. Загляни позже 🎅"
	msgNotInForm    = "Тебя нет в списке участников. Проверь, что указана та же страница ВКонтакте, что и в анкете."
	msgAssignEmpty  = "Задание пока недоступно. Напиши организаторам."
	msgBackToMenu   = "Главное меню 👇"
	msgHelp         = "Как всё устроено:\n" +
		"1. «" + ButtonRegister + "» - укажи свою страницу ВКонтакте из анкеты.\n" +
		"2. «" + ButtonAssignment + "» - анкета человека, которому ты даришь подарок.\n" +
		"3. «" + ButtonSubmitTrack + "» - отправь трек-номер, когда посылка уйдёт.\n" +
		"4. «" + ButtonTrackingState + "» - трек-номер посылки от твоего Санты."
	msgDefault = "Не понимаю 🙃 Воспользуйся кнопками меню."
)

var (
	trackingTmpl = template.Must(template.New("tracking").Parse(
		"Твой Санта отправил посылку! 🎁\nТрек-номер: {{.Code}}",
	))

	assignmentTmpl = template.Must(template.New("assignment").Parse(
		"Твоё задание 🎅\n\n" +
			"Имя: {{.Name}}\n" +
			"Адрес: {{.Address}}\n" +
			"Индекс: {{.PostIndex}}\n\n" +
			"Главный атрибут Нового года: {{.NewYearAttr}}\n" +
			"Чем любит заниматься в праздники: {{.NewYearDoings}}\n" +
			"Лучший подарок: {{.BestGift}}\n" +
			"Любимый фильм: {{.BestFilm}}\n" +
			"Любимая песня: {{.BestSong}}\n" +
			"Любимое блюдо: {{.BestDish}}\n" +
			"Лучшее воспоминание: {{.BestFlashback}}\n" +
			"Украшения: {{.Decorations}}\n" +
			"Подарок для кролика: {{.RabbitGift}}",
	))
)

func renderTracking(code string) (string, error) {
	var b strings.Builder
	if err := trackingTmpl.Execute(&b, struct{ Code string }{code}); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderAssignment(p Preferences) (string, error) {
	var b strings.Builder
	if err := assignmentTmpl.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}
