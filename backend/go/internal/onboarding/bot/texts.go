package bot

import (
	"fmt"
	"strings"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/models"
)

var statusHints = map[models.UserStatus]string{
	models.StatusNew:         "Начните с раздела 'Пребординг' для подготовки документов.",
	models.StatusPreboarding: "Продолжите процесс пребординга.",
	models.StatusPreboarded:  "Вы можете перейти к разделу 'Онбординг'.",
	models.StatusOnboarding:  "Продолжите процесс адаптации в разделе 'Онбординг'.",
	models.StatusCompleted:   "Добро пожаловать! Все этапы адаптации пройдены.",
}

func welcomeNewText(cfg *config.AppConfig, firstName string) string {
	return fmt.Sprintf(`🎉 Добро пожаловать в OnboardingBuddy, %s!

Я ваш виртуальный помощник в компании %s.
Помогу вам с адаптацией и отвечу на любые вопросы.

🚀 Для начала работы выберите нужный раздел в меню ниже.`, firstName, cfg.Company.Name)
}

func welcomeBackText(u *models.User, firstName string) string {
	return fmt.Sprintf(`👋 Добро пожаловать обратно, %s!

%s Ваш статус: %s
📊 Прогресс: %d/%d этапов

%s

Выберите нужный раздел:`, firstName, u.Status.Emoji(), u.Status.DisplayName(), u.Stage, models.MaxStage, statusHints[u.Status])
}

func helpText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`🤖 OnboardingBuddy - Справка

Добро пожаловать в корпоративного бота %s!

📋 Основные разделы:
🚀 Пребординг - Подготовка документов перед оформлением на работу
📋 Онбординг - Пошаговый процесс адаптации в компании
📚 Полезная информация - Вся информация о компании и ресурсах
❓ FAQ - Ответы на самые частые вопросы сотрудников
👥 Контакты - Контакты сотрудников и отделов
📞 Поддержка - Техническая поддержка и экстренные контакты
💬 Обратная связь - Отправить сообщение HR-отделу
📊 Мой прогресс - Ваш текущий прогресс адаптации

🔧 Доступные команды:
/start - Главное меню и перезапуск бота
/help - Эта справка
/status - Краткая информация о вашем статусе
/contacts - Быстрый доступ к контактам
/admin - Панель администратора (только для админов)

💡 Как пользоваться:
• Используйте кнопки меню для навигации
• Следуйте инструкциям бота поэтапно
• При возникновении проблем обращайтесь в поддержку
• Все ваши действия сохраняются для отслеживания прогресса

📞 Техподдержка бота: %s
📧 HR-отдел: %s`, cfg.Company.Name, cfg.Contacts.SupportTelegram, cfg.Contacts.HREmail)
}

func statusText(u *models.User) string {
	return fmt.Sprintf(`📊 Ваш статус

%s Статус: %s
📈 Прогресс: %d/%d этапов
%s

🎯 Следующий шаг: %s

📅 Дата регистрации: %s
🔄 Последнее обновление: %s`,
		u.Status.Emoji(), u.Status.DisplayName(), u.Stage, models.MaxStage, progressLine(u.Stage),
		models.NextStepHint(u.Stage), formatDate(u.CreatedAt), formatShortDateTime(u.UpdatedAt))
}

func contactsText(cfg *config.AppConfig) string {
	c := cfg.Contacts
	return fmt.Sprintf(`📞 Быстрые контакты

🏢 HR-отдел:
👤 Федосеенко С. М.
📧 %s
📱 %s
📞 %s

💻 IT-поддержка:
📧 %s
📱 %s
📞 %s

🔥 Экстренные случаи:
📱 %s

⏰ Время работы поддержки:
Пн-Пт: 9:00 - 18:00
Выходные: по срочным вопросам

Для полного списка контактов используйте раздел "👥 Контакты сотрудников"`,
		c.HREmail, c.HRTelegram, c.HRPhone, c.SupportEmail, c.SupportTelegram, c.SupportPhone, c.SupportTelegram)
}

func employeeContactsText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`👥 Контакты сотрудников %s

🌐 Команда на корпоративном сайте:
%s

🏢 HR-отдел
👤 Федосеенко С. М.
📧 %s
📱 %s

💻 IT-поддержка
📧 %s
📱 %s

📖 Справочник сотрудника с контактами всех отделов:
%s`, cfg.Company.Name, cfg.Links.TeamPage, cfg.Contacts.HREmail, cfg.Contacts.HRTelegram,
		cfg.Contacts.SupportEmail, cfg.Contacts.SupportTelegram, cfg.Links.Handbook)
}

func supportText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`📞 Техническая поддержка

💻 IT-поддержка:
📧 %s
📱 %s
📞 %s

Чем поможем:
• Доступы к корпоративной почте и системам
• Настройка рабочего места и оборудования
• Проблемы с VPN и корпоративными сервисами

⏰ Пн-Пт: 9:00 - 18:00
🔥 В экстренных случаях пишите в Telegram: %s`,
		cfg.Contacts.SupportEmail, cfg.Contacts.SupportTelegram, cfg.Contacts.SupportPhone, cfg.Contacts.SupportTelegram)
}

const unknownCommandText = "❓ Не понял вашу команду.\n\nИспользуйте кнопки меню для навигации или /help для справки."

// --- Preboarding ---

func preboardingIntroText(cfg *config.AppConfig, firstName string) string {
	return fmt.Sprintf(`🎊 Привет, %s!

Мы рады, что вы приняли решение присоединиться к нашей команде %s!

🏢 О нашей команде:
Мы состоим из талантливых профессионалов, которые создают инновационные IT-решения. Каждый сотрудник важен для нас, и мы стремимся создать максимально комфортную рабочую атмосферу.

📋 Что включает пребординг:
• Подготовка и отправка необходимых документов
• Ознакомление с процедурами оформления
• Подготовка к следующему этапу - онбордингу

⏱️ Примерное время: 15-30 минут

Готовы начать оформление?`, firstName, cfg.Company.Name)
}

const preboardingFinishedText = `🎉 Вы уже завершили весь процесс адаптации!

Если нужно что-то уточнить, обращайтесь к разделам:
• ❓ FAQ - ответы на вопросы
• 👥 Контакты сотрудников
• 📞 Поддержка`

const preboardingDoneText = `✅ Пребординг уже завершен!

Вы можете перейти к разделу "📋 Онбординг" для продолжения адаптации.`

func documentsIntroText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`📋 Документы для оформления на работу

Для успешного оформления в %s нам потребуются следующие документы.

📧 Email для отправки: %s

⚡ Важно:
• Отправляйте сканы или качественные фотографии
• Все документы должны быть четко читаемыми
• При возникновении вопросов обращайтесь: %s

📑 Документы разделены на две категории:
• Основные (обязательные для всех)
• По Трудовому кодексу РФ (при наличии)

Выберите категорию для ознакомления:`, cfg.Company.Name, cfg.Contacts.HREmail, cfg.Contacts.HRTelegram)
}

func mainDocumentsText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`📄 Основные документы (обязательные)

Отправьте на email: %s

Список документов:

1️⃣ Паспорт
   • Главная страница (фото + ФИО)
   • Страница с пропиской

2️⃣ ИНН (справка или свидетельство)

3️⃣ СНИЛС (зеленая карточка или справка)

4️⃣ Адрес фактического проживания
   • Если отличается от прописки в паспорте
   • Можно указать текстом в письме

5️⃣ Банковские реквизиты
   • Номер карты или расчетного счета
   • Желательно Сбербанк (для быстрых переводов)

⚠️ Обратите внимание:
• Все документы должны быть действующими
• Фото должны быть четкими и читаемыми
• В теме письма укажите: "Документы - [Ваше ФИО]"`, cfg.Contacts.HREmail)
}

func labourDocumentsText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`📑 Документы по Трудовому кодексу РФ

Отправьте на email: %s

Список документов (при наличии):

6️⃣ Трудовая книжка
   • Если есть физическая книжка
   • Или справка с предыдущего места работы
   • Для оформления трудового договора

7️⃣ Диплом об образовании
   • Если имеется высшее/среднее профессиональное образование
   • Для записи в трудовую книжку

8️⃣ Свидетельство о браке
   • Если состоите в браке
   • Для оформления льгот и отпусков

9️⃣ Свидетельства о рождении детей
   • Если есть несовершеннолетние дети
   • Для оформления детских пособий и льгот

🔟 Фото для корпоративного сайта
   • Деловое фото (предпочтительно)
   • Для размещения в команде на сайте

💡 Примечание: Документы 6-9 предоставляются только при их наличии.`, cfg.Contacts.HREmail)
}

func mainDocsSentText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`✅ Основные документы отмечены как отправленные

🎯 Что дальше:
• Если у вас есть документы по ТК РФ - отправьте их тоже
• Если все документы готовы - переходите к завершению

📧 Не забудьте:
Проверьте, что письмо с документами отправлено на %s`, cfg.Contacts.HREmail)
}

func labourDocsSentText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`✅ Документы по ТК РФ отмечены как отправленные

🎯 Что дальше:
• Если основные документы тоже готовы - завершайте пребординг
• Если не отправляли основные документы - обязательно отправьте их

📧 Напоминание:
Убедитесь, что все документы отправлены на %s`, cfg.Contacts.HREmail)
}

func preboardingCompleteText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`🎉 Отлично! Пребординг завершен!

✅ Что сделано:
• Все необходимые документы отправлены
• Ваша заявка поступила в HR-отдел

⏳ Что происходит дальше:
1. HR-менеджер проверит ваши документы (1-2 рабочих дня)
2. Будут подготовлены документы для подписания (ТД, NDA и др.)
3. Вы получите их на email для ознакомления и подписания

📧 Контакт HR-менеджера:
%s - для срочных вопросов

📚 В ожидании можете:
• Изучить раздел "📚 Полезная информация"
• Ознакомиться с "❓ FAQ"
• Посмотреть контакты будущих коллег

🎯 Следующий шаг:
После получения подписанных документов от HR-менеджера вы сможете перейти к этапу онбординга.

Нажмите кнопку ниже, когда получите подписанные документы:`, cfg.Contacts.HRTelegram)
}

// --- Onboarding ---

const onboardingLockedNewText = `⚠️ Для начала онбординга необходимо завершить пребординг

Пожалуйста, сначала пройдите раздел "🚀 Пребординг" для подготовки документов.

📋 Что включает пребординг:
• Подготовка необходимых документов
• Отправка сканов HR-менеджеру
• Получение подписанных документов

После завершения пребординга вы сможете перейти к онбордингу.`

func onboardingLockedPreboardingText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`🔄 Пребординг в процессе

Сначала завершите отправку документов в разделе "🚀 Пребординг".

📧 Не забудьте:
• Отправить все документы на %s
• Дождаться подтверждения от HR-менеджера
• Получить подписанные документы

После этого онбординг станет доступен.`, cfg.Contacts.HREmail)
}

const onboardingFinishedText = `🎉 Онбординг уже завершен!

Поздравляем! Вы успешно прошли все этапы адаптации.

📚 Что доступно:
• ❓ FAQ - ответы на вопросы
• 👥 Контакты сотрудников
• 📞 Поддержка
• 💬 Обратная связь

Если нужна помощь, обращайтесь к коллегам или в поддержку!`

func onboardingWelcomeText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`🎉 Отлично! Добро пожаловать в команду %s!

Поздравляем с официальным зачислением в штат!

📋 Что включает онбординг:
• Получение корпоративных доступов
• Знакомство с командой и процессами
• Ознакомление с рабочими инструментами
• Информация о планерках и встречах

⏱️ Примерное время: 20-30 минут

🎯 Цель онбординга:
Помочь вам быстро адаптироваться и стать полноценным членом команды.

Готовы начать знакомство с компанией?`, cfg.Company.Name)
}

func onboardingResumeText(u *models.User) string {
	return fmt.Sprintf(`🚀 Продолжаем онбординг

📊 Ваш прогресс: %d/%d этапов
%s

🎯 Текущий этап: %s

Продолжим с того места, где остановились?`, u.Stage, models.MaxStage, progressLine(u.Stage), models.StageName(u.Stage))
}

const onboardingNeedsDocumentsText = `⚠️ Этот шаг доступен после завершения пребординга.

Откройте раздел "🚀 Пребординг" и отправьте документы HR-менеджеру.`

func emailStepText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`🎉 Начинаем онбординг!

📧 Шаг 1: Корпоративная почта

Первым делом вам нужно получить доступ к корпоративной системе.

Что должно произойти:
• HR-менеджер отправляет данные для входа на вашу личную почту
• Вы получаете логин и пароль для корпоративной почты
• Через корпоративную почту открывается доступ ко всем ресурсам

📧 Проверьте почту!
Письмо должно прийти от: %s

В письме будут:
• Логин и пароль
• Ссылки на корпоративные ресурсы
• Инструкции по первому входу

❓ Получили ли вы доступ к корпоративной почте?`, cfg.Contacts.HREmail)
}

func emailReceivedText(cfg *config.AppConfig) string {
	calendar := cfg.Links.Calendar
	if calendar == "" {
		calendar = "В корпоративной почте"
	}
	portal := cfg.Links.Portal
	if portal == "" {
		portal = cfg.Links.CompanySite
	}
	return fmt.Sprintf(`🎉 Отлично! Доступ к корпоративной системе получен!

✅ Что теперь доступно:

📧 Корпоративная почта - основной канал коммуникации
💬 Корпоративные чаты - общение с командой
📅 Календарь - встречи и события
📁 Облачное хранилище - рабочие документы
🔧 Рабочие инструменты - системы управления проектами

Важные ресурсы:
• Портал сотрудника: %s
• Календарь событий: %s
• Техподдержка: %s

🎯 Что дальше?
Давайте познакомимся с командой и узнаем о рабочих процессах!`, portal, calendar, cfg.Contacts.SupportEmail)
}

func emailIssueText(cfg *config.AppConfig, userID int64) string {
	return fmt.Sprintf(`😔 Не получили доступ? Решим эту проблему!

🔧 Возможные причины:
• Письмо попало в спам
• Указана неверная почта при оформлении
• Техническая задержка в системе

📞 Немедленно обратитесь к HR-менеджеру:

👤 Федосеенко С. М.
📧 Email: %s
📱 Telegram: %s
📞 Телефон: %s

💬 Что сообщить HR:
"Не получил доступ к корпоративной почте для онбординга. Мой ID в боте: %d"

⏰ Время работы HR: Пн-Пт 9:00-18:00

После получения доступа возвращайтесь сюда для продолжения онбординга.`,
		cfg.Contacts.HREmail, cfg.Contacts.HRTelegram, cfg.Contacts.HRPhone, userID)
}

func teamIntroText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`👥 Знакомство с командой %s

🌐 Корпоративный сайт с командой:
%s

📊 Что вы найдете на сайте:
• Организационная структура - кто за что отвечает
• Профили сотрудников - фото, должности, навыки
• Контактная информация - кто к кому обращаться
• Структура отделов - как организована работа

👤 Ваш непосредственный руководитель:
• Информация будет отправлена на корпоративную почту
• Он свяжется с вами в первые дни работы
• Подготовит план адаптации и задачи

📖 Справочник сотрудника:
%s

В справочнике:
• Правила и процедуры компании
• Организационные моменты
• Контакты всех отделов
• Инструкции по работе с системами
• Корпоративные стандарты

💡 Совет: Изучите эти ресурсы в свободное время - это поможет быстрее влиться в команду!`,
		cfg.Company.Name, cfg.Links.TeamPage, cfg.Links.Handbook)
}

func meetingsText(cfg *config.AppConfig) string {
	hr := cfg.Meetings.HR
	if hr == "" {
		hr = "В корпоративном календаре"
	}
	return fmt.Sprintf(`📅 Планерки и встречи команды

🔗 Регулярные встречи:

🏢 Общая планерка
• Ссылка: %s
• Время: Понедельник, 10:00
• Участники: Вся команда
• Цель: Обсуждение планов на неделю

💻 IT-отдел
• Ссылка: %s
• Время: Среда, 11:00
• Участники: Техническая команда
• Цель: Технические вопросы и задачи

📈 Маркетинг
• Ссылка: %s
• Время: Пятница, 14:00
• Участники: Отдел маркетинга
• Цель: Продвижение и реклама

👥 HR-встречи
• Ссылка: %s
• Время: Первая пятница месяца, 15:00
• Участники: Вся команда
• Цель: HR-вопросы, адаптация, feedback

📧 Важно:
• Все приглашения приходят на корпоративную почту
• Обязательно участвуйте в планерках вашего отдела
• При невозможности участия - предупреждайте заранее

📝 Первая неделя:
• Посетите общую планерку для знакомства
• Участвуйте в планерке вашего отдела
• Руководитель проведет индивидуальную встречу`,
		cfg.Meetings.General, cfg.Meetings.IT, cfg.Meetings.Marketing, hr)
}

func onboardingCompleteText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`🎉🎊 ПОЗДРАВЛЯЕМ! 🎊🎉

Онбординг успешно завершен!

Теперь вы полноправный член команды %s!

✅ Что вы прошли:
• Пребординг и подготовка документов
• Получение корпоративных доступов
• Знакомство с командой и процессами
• Информация о планерках и встречах

🎯 Что дальше:
• Активно участвуйте в планерках вашего отдела
• Изучайте корпоративные ресурсы и документацию
• Общайтесь с коллегами и задавайте вопросы
• Развивайтесь профессионально с поддержкой команды

📞 Если нужна помощь:
• ❓ FAQ - ответы на частые вопросы
• 👥 Контакты - связь с коллегами
• 📞 Поддержка - техническая помощь
• 💬 Обратная связь - поделиться мнением

🚀 Добро пожаловать в команду!
Желаем успехов в работе и профессиональном росте!

---
Этот бот всегда доступен для справок и помощи.`, cfg.Company.Name)
}

// --- Feedback and progress ---

func feedbackPromptText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`💬 Обратная связь

Ваше мнение очень важно для нас! Мы стремимся постоянно улучшать процессы работы и создавать комфортную среду для всех сотрудников.

🎯 Что вы можете нам сообщить:
📝 Предложения по улучшению
🔧 Проблемы и сложности
💡 Идеи и инициативы
😊 Позитивные отзывы

💌 Как оставить обратную связь:

🤖 Через этого бота
Просто напишите ваше сообщение следующим текстом. Оно будет передано HR-отделу и руководству.

📧 По email
%s - для официальных обращений

💬 Лично
Обратитесь к HR-менеджеру: %s

📋 Через корпоративный портал
Раздел "Обратная связь" на %s

✍️ Напишите ваше сообщение прямо сейчас!

Для отмены используйте /cancel или /start.`, cfg.Contacts.HREmail, cfg.Contacts.HRTelegram, cfg.Links.CompanySite)
}

func feedbackThanksText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`✅ Спасибо за обратную связь!

Ваше сообщение успешно передано HR-отделу и руководству компании.

📋 Что дальше:
• Ваше предложение будет рассмотрено в течение 3 рабочих дней
• При необходимости с вами свяжется HR-менеджер
• Результаты рассмотрения будут сообщены всей команде

📞 Контакты для дополнительных вопросов:
• HR-отдел: %s
• Telegram: %s

---
Для возврата в главное меню используйте /start`, cfg.Contacts.HREmail, cfg.Contacts.HRTelegram)
}

const feedbackCancelledText = "❌ Отправка обратной связи отменена.\nИспользуйте команды или кнопки меню для навигации."

const resetUsageText = "ℹ️ Использование: /reset <ID пользователя>\nID можно найти в списке /users или в выгрузке."

const feedbackEmptyText = "✍️ Сообщение пустое. Напишите текст отзыва одним сообщением или отправьте /cancel."

func feedbackFailedText(cfg *config.AppConfig) string {
	return "😔 Произошла ошибка при отправке обратной связи.\n" +
		"Пожалуйста, обратитесь напрямую в HR-отдел: " + cfg.Contacts.HRTelegram + "\n\n" +
		"Для возврата в главное меню используйте /start"
}

func nextStepDescription(u *models.User) string {
	switch u.Status {
	case models.StatusNew:
		return "• Начните с раздела '🚀 Пребординг' для подготовки документов"
	case models.StatusPreboarding:
		switch {
		case u.Stage < models.StageDocumentsMain:
			return "• Ознакомьтесь с требуемыми документами и отправьте их"
		case u.Stage < models.StageDocumentsComplete:
			return "• Завершите отправку всех необходимых документов"
		default:
			return "• Дождитесь обработки документов HR-менеджером"
		}
	case models.StatusPreboarded:
		return "• Переходите к разделу '📋 Онбординг' для продолжения адаптации"
	case models.StatusOnboarding:
		switch {
		case u.Stage < models.StageEmailAccess:
			return "• Получите доступ к корпоративной почте"
		case u.Stage < models.StageTeamIntro:
			return "• Изучите информацию о команде и структуре компании"
		case u.Stage < models.StageMeetings:
			return "• Ознакомьтесь с планерками и рабочими процессами"
		default:
			return "• Завершите онбординг в соответствующем разделе"
		}
	case models.StatusCompleted:
		return "• 🎉 Все этапы пройдены! Добро пожаловать в команду!\n• Используйте бота для получения справочной информации"
	}
	return "• Продолжайте процесс адаптации согласно инструкциям"
}

var recommendations = map[models.UserStatus][]string{
	models.StatusNew: {
		"Начните с пребординга - это займет 15-20 минут",
		"Подготовьте сканы документов заранее",
		"При вопросах обращайтесь в HR-отдел",
	},
	models.StatusPreboarding: {
		"Отправляйте документы качественными сканами или фото",
		`Проверьте папку "Спам" в почте для писем от HR`,
		`В ожидании обработки изучите раздел "Полезная информация"`,
	},
	models.StatusPreboarded: {
		"Проверьте корпоративную почту для получения доступов",
		"Изучите корпоративный сайт и структуру команды",
		"Подготовьтесь к первому рабочему дню",
	},
	models.StatusOnboarding: {
		"Активно участвуйте в планерках отдела",
		"Знакомьтесь с коллегами и задавайте вопросы",
		"Изучайте корпоративные инструменты и процессы",
	},
	models.StatusCompleted: {
		"Вы успешно интегрировались в команду",
		"Продолжайте использовать бота для справочной информации",
		"Делитесь обратной связью для улучшения процессов",
	},
}

func recommendationsText(st models.UserStatus) string {
	items, ok := recommendations[st]
	if !ok {
		return ""
	}
	var b strings.Builder
	if st == models.StatusCompleted {
		b.WriteString("🎉 Поздравляем с завершением адаптации!\n")
	} else {
		b.WriteString("🎯 Рекомендации:\n")
	}
	for _, item := range items {
		b.WriteString("• " + item + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
