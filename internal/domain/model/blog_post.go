package model

// BlogPost — запись блога. Хранится в таблице blog_posts.
type BlogPost struct {
	// ID — первичный ключ (автоинкремент)
	ID int64
	// Title — заголовок поста
	Title string
	// Content — содержимое поста
	Content string
	// MediaURL — необязательная ссылка на медиа (nil — не задана)
	MediaURL *string
	// AuthorName — имя автора. Произвольная строка, НЕ внешний ключ
	// на admins: это подпись, а не ссылка.
	AuthorName string
}
