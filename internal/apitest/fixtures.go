package apitest

import (
	"time"

	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/util"
)

// Seed fills the backend with a small Vietnamese-language library: a few
// books, two readers, posts and one slip in each state.
func (b *Backend) Seed() *Backend {
	b.SetCategories([]domain.Category{
		{Name: "Văn học", Slug: util.CategorySlug("Văn học"), Subcategories: []domain.Subcategory{
			{Name: "Tiểu thuyết", Slug: util.CategorySlug("Tiểu thuyết")},
			{Name: "Truyện ngắn", Slug: util.CategorySlug("Truyện ngắn")},
		}},
		{Name: "Kỹ năng", Slug: util.CategorySlug("Kỹ năng"), Subcategories: []domain.Subcategory{
			{Name: "Phát triển bản thân", Slug: util.CategorySlug("Phát triển bản thân")},
		}},
	})

	b.AddBook(domain.Book{ID: "1", Title: "Nhà Giả Kim", Author: "Paulo Coelho", Category: "Tiểu thuyết", Quantity: 5, Available: 3})
	b.AddBook(domain.Book{ID: "2", Title: "Số Đỏ", Author: "Vũ Trọng Phụng", Category: "Tiểu thuyết", Quantity: 2, Available: 2})
	b.AddBook(domain.Book{ID: "3", Title: "Tắt Đèn", Author: "Ngô Tất Tố", Category: "Tiểu thuyết", Quantity: 1, Available: 0})
	b.AddBook(domain.Book{ID: "4", Title: "Đắc Nhân Tâm", Author: "Dale Carnegie", Category: "Phát triển bản thân", Quantity: 4, Available: 4})
	b.AddBook(domain.Book{ID: "5", Title: "Vợ Nhặt", Author: "Kim Lân", Category: "Truyện ngắn", Quantity: 3, Available: 1})

	b.AddReader(domain.Reader{ID: "1", Name: "Nguyễn Văn An", Email: "an.nguyen@example.com", Address: "Hà Nội", Phone: "0912345678"})
	b.AddReader(domain.Reader{ID: "2", Name: "Trần Thị Bình", Email: "binh.tran@example.com", Address: "Đà Nẵng", Phone: "0987654321"})

	now := time.Now().UTC().Truncate(time.Second)
	b.AddPost(domain.Post{ID: "1", Title: "Giờ mở cửa dịp Tết", Author: "Thủ thư", Status: domain.PostPublished,
		Content: "<p>Thư viện <strong>nghỉ</strong> từ 28 Tết đến mùng 5.</p>", CreatedAt: domain.Timestamp{Time: now.AddDate(0, 0, -3)}})
	b.AddPost(domain.Post{ID: "2", Title: "Sách mới tháng này", Author: "Thủ thư", Status: domain.PostDraft,
		Content: "<ul><li>Nhà Giả Kim</li><li>Đắc Nhân Tâm</li></ul>", CreatedAt: domain.Timestamp{Time: now}})

	today := time.Now().UTC()
	due := func(days int) domain.Date {
		d := today.AddDate(0, 0, days)
		return domain.NewDate(d.Year(), d.Month(), d.Day())
	}
	b.AddBorrow(domain.Borrow{ID: "101", BookTitle: "Số Đỏ", BorrowerName: "Nguyễn Văn An", BorrowerPhone: "0912345678",
		BorrowDate: domain.Timestamp{Time: now.AddDate(0, 0, -10)}, DueDate: due(4), Status: domain.BorrowActive})
	b.AddBorrow(domain.Borrow{ID: "102", BookTitle: "Tắt Đèn", BorrowerName: "Trần Thị Bình", BorrowerPhone: "0987654321",
		BorrowDate: domain.Timestamp{Time: now.AddDate(0, 0, -30)}, DueDate: due(-16), Status: domain.BorrowOverdue})
	b.AddBorrow(domain.Borrow{ID: "103", BookTitle: "Vợ Nhặt", BorrowerName: "Nguyễn Văn An", BorrowerPhone: "0912345678",
		BorrowDate: domain.Timestamp{Time: now.AddDate(0, 0, -20)}, DueDate: due(-6), Status: domain.BorrowReturned})
	b.AddPending(domain.Borrow{ID: "201", BookTitle: "Đắc Nhân Tâm", BorrowerName: "Trần Thị Bình", BorrowerPhone: "0987654321",
		DueDate: due(14), Status: domain.BorrowActive})
	return b
}
